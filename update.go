package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"wave-portal/config"
	"wave-portal/helpers"
	"wave-portal/portal"
	logview "wave-portal/views/log"
	"wave-portal/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempRPCFormName       string
	tempRPCFormURL        string
	tempConnectAccount    string
	tempConnectPassphrase string
)

// createConnectForm builds the account/passphrase form; a non-zero
// preselect is chosen in the account list
func (m *model) createConnectForm(preselect common.Address) {
	tempConnectAccount = ""
	tempConnectPassphrase = ""

	var options []huh.Option[string]
	for _, a := range m.provider.Available() {
		options = append(options, huh.NewOption(helpers.ShortenAddr(a.Hex())+"  "+a.Hex(), a.Hex()))
	}
	if preselect != (common.Address{}) {
		tempConnectAccount = preselect.Hex()
	} else if len(options) > 0 {
		tempConnectAccount = options[0].Value
	}

	m.connectForm = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Options(options...).
				Title("Account").
				Description("Choose the keystore account to connect").
				Value(&tempConnectAccount),

			huh.NewInput().
				Title("Passphrase").
				Description("Unlocks the account for signing").
				EchoMode(huh.EchoModePassword).
				Value(&tempConnectPassphrase),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.connectForm.Init()
}

// promptUnlock opens the connect form for the connected account, which was
// authorized in an earlier run but is locked in this one
func (m *model) promptUnlock() {
	m.addLog(log.WarnLevel, "Account is locked, enter the passphrase", "account", m.state.Account.Hex())
	m.createConnectForm(m.state.Account)
}

func (m *model) createAddRPCForm() {
	tempRPCFormName = ""
	tempRPCFormURL = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("RPC Name").
				Description("A friendly name for this RPC endpoint").
				Value(&tempRPCFormName).
				Placeholder("Local node"),

			huh.NewInput().
				Title("RPC URL").
				Description("http(s):// or ws(s):// endpoint; ws is needed for live updates").
				Value(&tempRPCFormURL).
				Placeholder("ws://127.0.0.1:8545").
				Validate(validateRPCURL),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.form.Init()
}

func validateRPCURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid url")
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
		return nil
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}

func (m *model) saveConfig() {
	m.cfg.Logger = m.logEnabled
	if err := config.Save(m.configPath, m.cfg); err != nil {
		m.addLog(log.ErrorLevel, "Saving config failed", "err", err)
	}
}

// alertFor turns a connect failure into the text of the blocking alert
func alertFor(err error) string {
	switch {
	case errors.Is(err, wallet.ErrNoProvider):
		return "Get a wallet! Set WAVE_KEYSTORE_DIR or WAVE_PRIVATE_KEY and restart."
	case errors.Is(err, wallet.ErrUserRejected):
		return "Connection rejected: " + err.Error()
	default:
		return "Could not connect wallet: " + err.Error()
	}
}

// isAppMsg reports whether msg is one of ours rather than input for a form
func isAppMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case logInitMsg, rpcConnectedMsg, silentConnectMsg, accountConnectedMsg,
		portalEventMsg, feedOpenedMsg, waveDeliveredMsg, feedClosedMsg, feedStoppedMsg,
		accountLoadedMsg, clipboardCopiedMsg, clearCopiedMsg,
		spinner.TickMsg, tea.WindowSizeMsg:
		return true
	}
	return false
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.updateLogViewport()

	// Handle form updates first; app messages still reach the switch below
	if m.connectForm != nil && !isAppMsg(msg) {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.connectForm = nil
			return m, nil
		}

		form, cmd := m.connectForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.connectForm = f

			if m.connectForm.State == huh.StateCompleted {
				req := wallet.AccessRequest{Passphrase: tempConnectPassphrase}
				if common.IsHexAddress(tempConnectAccount) {
					req.Account = common.HexToAddress(tempConnectAccount)
				}
				tempConnectPassphrase = ""
				m.connectForm = nil
				m.connecting = true
				return m, requestAccounts(m.controller, req)
			}

			if m.connectForm.State == huh.StateAborted {
				m.connectForm = nil
				return m, nil
			}
		}
		return m, cmd
	}

	if m.activePage == config.PageSettings && m.settingsMode == "add" && m.form != nil && !isAppMsg(msg) {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.settingsMode = "list"
			m.form = nil
			return m, nil
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f

			if m.form.State == huh.StateCompleted {
				name := strings.TrimSpace(tempRPCFormName)
				u := strings.TrimSpace(tempRPCFormURL)
				if name == "" {
					name = u
				}
				if u != "" {
					m.cfg.RPCURLs = append(m.cfg.RPCURLs, config.RPCUrl{Name: name, URL: u})
					m.saveConfig()
					m.addLog(log.InfoLevel, "Added RPC endpoint", "name", name, "url", u)
				}
				m.settingsMode = "list"
				m.form = nil
				return m, nil
			}

			if m.form.State == huh.StateAborted {
				m.settingsMode = "list"
				m.form = nil
				return m, nil
			}
		}
		return m, cmd
	}

	switch msg := msg.(type) {

	case logInitMsg:
		if !m.logEnabled {
			return m, nil
		}
		m.logReady = true
		m.logSeen = 0
		m.addLog(log.InfoLevel, "Logger enabled")
		return m, nil

	case rpcConnectedMsg:
		if msg.url != m.rpcURL {
			// result for an endpoint that is no longer selected
			if msg.client != nil && msg.client.Client != nil {
				msg.client.Close()
			}
			m.addLog(log.DebugLevel, "Dropped stale RPC connection", "url", msg.url)
			return m, nil
		}
		m.rpcConnecting = false
		if msg.err != nil {
			m.ethClient = nil
			m.rpcConnected = false
			m.addLog(log.ErrorLevel, "RPC connection failed", "err", msg.err)
			return m, nil
		}
		ctrl, err := newController(msg.client, m.env, m.provider, m.controllerOptions()...)
		if err != nil {
			m.addLog(log.ErrorLevel, "Contract unavailable", "err", err)
			ctrl, _ = newController(nil, m.env, m.provider, m.controllerOptions()...)
		}
		stop := m.teardown()
		if m.ethClient != nil && m.ethClient != msg.client {
			m.ethClient.Close()
		}
		m.ethClient = msg.client
		m.rpcConnected = true
		m.controller = ctrl
		m.addLog(log.InfoLevel, "RPC connected", "url", msg.client.URL, "contract", m.env.ContractAddress)
		return m, tea.Batch(stop, m.startSession(), m.loadAccountDetails())

	case silentConnectMsg:
		if !msg.ok {
			return m, nil
		}
		return m, m.onConnected(msg.account)

	case accountConnectedMsg:
		m.connecting = false
		if msg.err != nil {
			// connection state is left untouched
			m.alert = alertFor(msg.err)
			return m, nil
		}
		return m, m.onConnected(msg.account)

	case portalEventMsg:
		m.apply(msg.ev)
		switch ev := msg.ev.(type) {
		case portal.SubmitMined:
			m.showTxPanel = true
			m.addLog(log.InfoLevel, "Wave mined", "count", ev.Count, "tx", ev.TxHash.Hex())
			return m, m.loadAccountDetails()
		case portal.SubmitFailed:
			m.addLog(log.WarnLevel, "Wave not sent", "err", ev.Err)
			if errors.Is(ev.Err, wallet.ErrLocked) && m.connectForm == nil {
				m.promptUnlock()
			}
		}
		return m, nil

	case feedOpenedMsg:
		if msg.err != nil {
			m.addLog(log.WarnLevel, "Live updates unavailable", "err", msg.err)
			return m, nil
		}
		if !m.state.Connected() {
			return m, m.retire(msg.feed)
		}
		stop := m.teardown()
		m.feed = msg.feed
		m.addLog(log.DebugLevel, "Subscribed to NewWave", "feed", m.feed.ID())
		return m, tea.Batch(stop, waitForWave(m.feed))

	case feedStoppedMsg:
		delete(m.closing, msg.feedID)
		return m, nil

	case waveDeliveredMsg:
		if m.feed == nil || msg.feedID != m.feed.ID() {
			// delivery from a feed that was torn down
			return m, nil
		}
		m.apply(portal.WaveReceived{Wave: msg.wave})
		return m, waitForWave(m.feed)

	case feedClosedMsg:
		if m.feed != nil && msg.feedID == m.feed.ID() {
			m.addLog(log.WarnLevel, "Live updates stopped", "err", msg.err)
			m.feed = nil
		}
		return m, nil

	case accountLoadedMsg:
		m.loadingAccount = false
		if msg.d.Address != m.state.Account.Hex() {
			return m, nil
		}
		m.account = msg.d
		if m.account.ErrMessage != "" {
			m.addLog(log.WarnLevel, "Account details", "err", m.account.ErrMessage)
		} else {
			m.addLog(log.DebugLevel, "Loaded account", "address", helpers.ShortenAddr(m.account.Address), "balance", helpers.FormatETH(m.account.EthWei))
		}
		return m, nil

	case clipboardCopiedMsg:
		m.copiedMsg = "✓ Copied " + msg.what
		m.addLog(log.InfoLevel, "Copied to clipboard", "what", msg.what)
		return m, clearClipboardMsg()

	case clearCopiedMsg:
		m.copiedMsg = ""
		return m, nil

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		m.wavesVP.Width = historyWidth(m.w)
		m.refreshHistory()
		if m.logEnabled {
			// Width accounts for border and padding
			m.logViewport.Width = helpers.Max(0, msg.Width-6)
			m.logViewport.Height = logview.PanelHeight(msg.Height)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		var cmds []tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if m.activePage == config.PageWaves {
			var cmd tea.Cmd
			m.wavesVP, cmd = m.wavesVP.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// blocking alert swallows every key until dismissed
	if m.alert != "" {
		switch msg.String() {
		case "enter", "esc", " ":
			m.alert = ""
		case "ctrl+c":
			m.teardown()
			return m, tea.Quit
		}
		return m, nil
	}

	if m.showTxPanel {
		switch msg.String() {
		case "c", "y":
			if m.state.LastTx != (common.Hash{}) {
				return m, copyToClipboard(m.state.LastTx.Hex(), "transaction hash")
			}
		case "esc", "enter":
			m.showTxPanel = false
			m.copiedMsg = ""
		case "ctrl+c":
			m.teardown()
			return m, tea.Quit
		}
		return m, nil
	}

	if !m.textInputActive() {
		switch msg.String() {
		case "ctrl+c", "q":
			m.teardown()
			return m, tea.Quit

		case "l", "L":
			m.logEnabled = !m.logEnabled
			m.saveConfig()
			if m.logEnabled {
				if m.w > 0 {
					m.logViewport.Width = m.w - 6
					m.logViewport.Height = logview.PanelHeight(m.h)
				}
				m.logReady = false
				return m, tea.Batch(initLogViewport(), m.logSpinner.Tick)
			}
			m.logBuffer.Reset()
			m.logReady = false
			return m, nil

		case "pageup", "pagedown":
			if m.logEnabled && m.logReady {
				var cmd tea.Cmd
				m.logViewport, cmd = m.logViewport.Update(msg)
				return m, cmd
			}
		}
	}

	switch m.activePage {
	case config.PageWaves:
		return m.handleWavesKey(msg)
	case config.PageSettings:
		return m.handleSettingsKey(msg)
	}
	return m, nil
}

func (m *model) handleWavesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "esc", "tab":
			m.editing = false
			m.input.Blur()
			return m, nil
		case "enter":
			if !m.state.CanSubmit() {
				return m, nil
			}
			if m.needsUnlock() {
				m.editing = false
				m.input.Blur()
				m.promptUnlock()
				return m, nil
			}
			m.apply(portal.SubmitStarted{})
			m.addLog(log.InfoLevel, "Sending wave", "message", m.state.Draft)
			return m, tea.Batch(m.spin.Tick, submitWave(m.controller, m.state.Account, m.state.Draft))
		case "ctrl+c":
			m.teardown()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != m.state.Draft {
			m.apply(portal.DraftChanged{Text: m.input.Value()})
		}
		return m, cmd
	}

	switch msg.String() {
	case "c", "C":
		if m.connecting {
			return m, nil
		}
		if m.state.Connected() {
			if m.needsUnlock() {
				m.promptUnlock()
			}
			return m, nil
		}
		if m.provider != nil && m.provider.RequiresPassphrase() {
			m.createConnectForm(common.Address{})
			return m, nil
		}
		m.connecting = true
		return m, requestAccounts(m.controller, wallet.AccessRequest{})

	case "i", "enter":
		if m.state.Connected() {
			m.editing = true
			return m, m.input.Focus()
		}
		return m, nil

	case "r", "R":
		if m.state.Connected() {
			return m, fetchWaves(m.controller)
		}
		return m, nil

	case "a", "A":
		return m, m.loadAccountDetails()

	case "t", "T":
		if m.state.LastTx != (common.Hash{}) {
			m.showTxPanel = true
		}
		return m, nil

	case "y", "Y":
		if m.state.Connected() {
			return m, copyToClipboard(m.state.Account.Hex(), "address")
		}
		return m, nil

	case "s", "S":
		m.activePage = config.PageSettings
		return m, nil

	case "up", "k", "down", "j", "home", "end":
		var cmd tea.Cmd
		m.wavesVP, cmd = m.wavesVP.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showRPCDeleteDialog {
		switch msg.String() {
		case "left", "right", "tab":
			m.deleteRPCDialogYesSelected = !m.deleteRPCDialogYesSelected
		case "enter":
			if m.deleteRPCDialogYesSelected {
				idx := m.deleteRPCDialogIdx
				if idx >= 0 && idx < len(m.cfg.RPCURLs) {
					m.cfg.RPCURLs = append(m.cfg.RPCURLs[:idx], m.cfg.RPCURLs[idx+1:]...)
					if m.selectedRPCIdx >= len(m.cfg.RPCURLs) && m.selectedRPCIdx > 0 {
						m.selectedRPCIdx--
					}
					m.saveConfig()
					m.addLog(log.WarnLevel, "Deleted RPC endpoint", "name", m.deleteRPCDialogName)
				}
			}
			m.showRPCDeleteDialog = false
		case "esc":
			m.showRPCDeleteDialog = false
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.activePage = config.PageWaves
		return m, nil

	case "a", "A":
		m.settingsMode = "add"
		m.createAddRPCForm()
		return m, nil

	case "d", "D", "delete", "backspace":
		if m.selectedRPCIdx < len(m.cfg.RPCURLs) {
			m.showRPCDeleteDialog = true
			m.deleteRPCDialogYesSelected = true
			m.deleteRPCDialogIdx = m.selectedRPCIdx
			name := strings.TrimSpace(m.cfg.RPCURLs[m.selectedRPCIdx].Name)
			if name == "" {
				name = m.cfg.RPCURLs[m.selectedRPCIdx].URL
			}
			m.deleteRPCDialogName = name
		}
		return m, nil

	case "up", "k":
		if m.selectedRPCIdx > 0 {
			m.selectedRPCIdx--
		}
		return m, nil

	case "down", "j":
		if m.selectedRPCIdx < len(m.cfg.RPCURLs)-1 {
			m.selectedRPCIdx++
		}
		return m, nil

	case "enter", " ":
		if m.selectedRPCIdx < len(m.cfg.RPCURLs) {
			for i := range m.cfg.RPCURLs {
				m.cfg.RPCURLs[i].Active = i == m.selectedRPCIdx
			}
			m.rpcURL = m.cfg.RPCURLs[m.selectedRPCIdx].URL
			m.saveConfig()
			// the old feed belongs to the old connection
			stop := m.teardown()
			m.rpcConnecting = true
			m.rpcConnected = false
			return m, tea.Batch(stop, connectRPC(m.rpcURL))
		}
		return m, nil
	}
	return m, nil
}
