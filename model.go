package main

import (
	"wave-portal/config"
	"wave-portal/portal"
	"wave-portal/rpc"
	"wave-portal/styles"
	logview "wave-portal/views/log"
	"wave-portal/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page

	env        config.Env
	cfg        config.Config
	configPath string

	// portal state; only changed through apply
	state      portal.State
	controller *portal.Controller
	provider   wallet.Provider
	feed       *portal.Feed
	closing    map[uint64]*portal.Feed // closed, not yet stopped

	// draft input
	input   textinput.Model
	editing bool

	// history
	wavesVP viewport.Model

	spin          spinner.Model
	rpcURL        string
	ethClient     *rpc.Client
	rpcConnected  bool
	rpcConnecting bool

	// connected account details
	account        rpc.AccountDetails
	loadingAccount bool

	// explicit connect
	connectForm *huh.Form
	connecting  bool

	// blocking alert
	alert string

	// transaction panel
	showTxPanel bool

	// clipboard feedback
	copiedMsg string

	// settings state
	settingsMode               string // "list", "add"
	selectedRPCIdx             int
	form                       *huh.Form
	showRPCDeleteDialog        bool
	deleteRPCDialogName        string
	deleteRPCDialogIdx         int
	deleteRPCDialogYesSelected bool

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *logview.Buffer
	logSeen     uint64
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
}

// -------------------- INIT --------------------

// newModel creates a model from the environment, the config file and the
// detected wallet provider, which may be nil
func newModel(env config.Env, cfg config.Config, provider wallet.Provider) model {
	// input for the draft
	in := textinput.New()
	in.Placeholder = "Write your message here."
	in.Prompt = "Message: "
	in.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	in.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	in.CharLimit = 280
	in.Width = 48

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	activeRPC := cfg.ActiveRPC(env.RPCURL)

	// Will be resized on first WindowSizeMsg
	vp := viewport.New(0, 20)
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	wavesVP := viewport.New(0, 10)

	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	buf := &logview.Buffer{}
	logger := newPanelLogger(buf)

	m := model{
		activePage:     config.PageWaves,
		env:            env,
		cfg:            cfg,
		configPath:     env.ConfigPath,
		provider:       provider,
		input:          in,
		wavesVP:        wavesVP,
		spin:           sp,
		rpcURL:         activeRPC,
		settingsMode:   "list",
		selectedRPCIdx: 0,
		logEnabled:     cfg.Logger,
		logger:         logger,
		logBuffer:      buf,
		logViewport:    vp,
		logSpinner:     logSpin,
	}
	m.controller = portal.New(nil, provider, m.controllerOptions()...)
	m.refreshHistory()
	return m
}

// newPanelLogger creates a logger that writes to the log panel buffer
func newPanelLogger(buf *logview.Buffer) *log.Logger {
	logger := log.NewWithOptions(buf, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "",
	})
	logger.SetLevel(log.DebugLevel)
	logger.SetStyles(&log.Styles{
		Timestamp: lipgloss.NewStyle().Foreground(cMuted),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Foreground(cAccent2),
		Message:   lipgloss.NewStyle().Foreground(cText),
		Key:       lipgloss.NewStyle().Foreground(cAccent),
		Value:     lipgloss.NewStyle().Foreground(cText),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
			log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
			log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
			log.ErrorLevel: lipgloss.NewStyle().Foreground(cError).SetString("ERROR"),
		},
	})
	return logger
}

func (m *model) controllerOptions() []portal.Option {
	return []portal.Option{
		portal.WithGasLimit(m.env.GasLimit),
		portal.WithLogger(m.logger),
	}
}

// Init implements tea.Model interface and returns initial commands
func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, checkWallet(m.controller)}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	// connect if rpc is set
	if m.rpcURL != "" {
		m.rpcConnecting = true
		cmds = append(cmds, connectRPC(m.rpcURL))
	}
	return tea.Batch(cmds...)
}
