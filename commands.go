package main

import (
	"context"
	"fmt"
	"time"

	"wave-portal/config"
	"wave-portal/contract"
	"wave-portal/portal"
	"wave-portal/rpc"
	"wave-portal/wallet"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

const (
	callTimeout   = 20 * time.Second
	submitTimeout = 5 * time.Minute
)

// connectRPC establishes an RPC connection to the Ethereum node
func connectRPC(url string) tea.Cmd {
	return func() tea.Msg {
		result := rpc.Connect(url)
		return rpcConnectedMsg{url: url, client: result.Client, err: result.Error}
	}
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// checkWallet detects the wallet and tries to reconnect without prompting
func checkWallet(c *portal.Controller) tea.Cmd {
	return func() tea.Msg {
		if !c.DetectWallet() {
			return silentConnectMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		acct, ok := c.SilentConnect(ctx)
		return silentConnectMsg{account: acct, ok: ok}
	}
}

// requestAccounts asks the wallet for account access
func requestAccounts(c *portal.Controller, req wallet.AccessRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		acct, err := c.Connect(ctx, req)
		return accountConnectedMsg{account: acct, err: err}
	}
}

// fetchWaves reads the full wave history
func fetchWaves(c *portal.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return portalEventMsg{ev: c.FetchAllMessages(ctx)}
	}
}

// submitWave sends a wave and waits for it to be mined
func submitWave(c *portal.Controller, account common.Address, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return portalEventMsg{ev: c.SubmitMessage(ctx, account, text)}
	}
}

// subscribeWaves opens a live NewWave feed
func subscribeWaves(c *portal.Controller) tea.Cmd {
	return func() tea.Msg {
		feed, err := c.Subscribe(context.Background())
		return feedOpenedMsg{feed: feed, err: err}
	}
}

// waitForWave pulls the next delivery from feed; it is re-armed after each one
func waitForWave(feed *portal.Feed) tea.Cmd {
	return func() tea.Msg {
		w, ok := <-feed.C()
		if !ok {
			return feedClosedMsg{feedID: feed.ID(), err: feed.Err()}
		}
		return waveDeliveredMsg{feedID: feed.ID(), wave: w}
	}
}

// awaitFeedStop waits off the update loop for a closed feed to shut down
func awaitFeedStop(feed *portal.Feed) tea.Cmd {
	return func() tea.Msg {
		<-feed.Done()
		return feedStoppedMsg{feedID: feed.ID()}
	}
}

// loadAccount fetches balance details for the connected account
func loadAccount(client *rpc.Client, addr common.Address) tea.Cmd {
	return func() tea.Msg {
		return accountLoadedMsg{d: rpc.LoadAccount(client, addr)}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text, what string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		if err == nil {
			return clipboardCopiedMsg{what: what}
		}
		return nil
	}
}

// clearClipboardMsg waits 2 seconds then clears clipboard feedback
func clearClipboardMsg() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return clearCopiedMsg{}
	})
}

// newController binds the contract through client when one is connected.
// A nil client yields a controller whose contract operations fail with
// portal.ErrNoBackend.
func newController(client *rpc.Client, env config.Env, provider wallet.Provider, opts ...portal.Option) (*portal.Controller, error) {
	if client == nil || client.Client == nil {
		return portal.New(nil, provider, opts...), nil
	}
	if !common.IsHexAddress(env.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", env.ContractAddress)
	}
	wp, err := contract.New(common.HexToAddress(env.ContractAddress), client)
	if err != nil {
		return nil, fmt.Errorf("failed to bind contract: %w", err)
	}
	return portal.New(wp, provider, opts...), nil
}

// -------------------- MODEL HELPER METHODS --------------------
// These methods help with state management and command generation

// apply is the single path through which portal state changes
func (m *model) apply(ev portal.Event) {
	m.state = portal.Reduce(m.state, ev)
	m.refreshHistory()
}

// refreshHistory re-renders the held waves into the history viewport
func (m *model) refreshHistory() {
	m.wavesVP.SetContent(renderHistory(m.state.Waves, m.wavesVP.Width))
}

// addLog adds a log entry
func (m *model) addLog(level log.Level, message string, keyvals ...interface{}) {
	if m.logger == nil {
		return
	}
	m.logger.Log(level, message, keyvals...)
}

// updateLogViewport refreshes the viewport content when the buffer changed
func (m *model) updateLogViewport() {
	if !m.logReady || m.logBuffer == nil {
		return
	}
	v := m.logBuffer.Version()
	if v == m.logSeen {
		return
	}
	m.logSeen = v
	m.logViewport.SetContent(m.logBuffer.String())
	// Scroll to bottom to show latest entries
	m.logViewport.GotoBottom()
}

// onConnected follows an account connection: history, live feed and balance
func (m *model) onConnected(account common.Address) tea.Cmd {
	if m.state.Connected() && m.state.Account == account {
		// an unlock of the account already in use
		m.addLog(log.InfoLevel, "Account unlocked", "account", account.Hex())
		return m.loadAccountDetails()
	}
	m.apply(portal.AccountConnected{Account: account})
	if m.cfg.Authorize(account.Hex()) {
		if err := config.Save(m.configPath, m.cfg); err != nil {
			m.addLog(log.ErrorLevel, "Saving config failed", "err", err)
		}
	}
	return tea.Batch(m.startSession(), m.loadAccountDetails())
}

// startSession fetches history and opens the live feed when both an account
// and a contract backend are available
func (m *model) startSession() tea.Cmd {
	if !m.state.Connected() || !m.controller.HasBackend() {
		return nil
	}
	return tea.Batch(m.teardown(), fetchWaves(m.controller), subscribeWaves(m.controller))
}

func (m *model) loadAccountDetails() tea.Cmd {
	if !m.state.Connected() {
		return nil
	}
	m.loadingAccount = true
	return loadAccount(m.ethClient, m.state.Account)
}

// teardown stops the live feed; later deliveries from it are dropped.
// The returned command waits for the shutdown off the update loop.
func (m *model) teardown() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	feed := m.feed
	m.feed = nil
	m.addLog(log.DebugLevel, "Unsubscribed from NewWave", "feed", feed.ID())
	return m.retire(feed)
}

// retire closes feed without blocking and tracks it until it has stopped
func (m *model) retire(feed *portal.Feed) tea.Cmd {
	feed.Close()
	if m.closing == nil {
		m.closing = make(map[uint64]*portal.Feed)
	}
	m.closing[feed.ID()] = feed
	return awaitFeedStop(feed)
}

// awaitClosing waits up to timeout for retired feeds to finish shutting down
func (m *model) awaitClosing(timeout time.Duration) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for id, feed := range m.closing {
		select {
		case <-feed.Done():
			delete(m.closing, id)
		case <-deadline.C:
			m.addLog(log.WarnLevel, "Feeds still shutting down", "count", len(m.closing))
			return
		}
	}
}

// needsUnlock reports whether the connected account must be unlocked
// before it can sign
func (m *model) needsUnlock() bool {
	return m.state.Connected() && wallet.NeedsUnlock(m.provider, m.state.Account)
}

// textInputActive returns true if any text input is currently active
func (m model) textInputActive() bool {
	if m.editing {
		return true
	}
	if m.connectForm != nil {
		return true
	}
	if m.settingsMode == "add" && m.form != nil {
		return true
	}
	return false
}
