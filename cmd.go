package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wave-portal/config"
	"wave-portal/helpers"
	"wave-portal/portal"
	"wave-portal/rpc"
	"wave-portal/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	verbose  bool
	fromAddr string
	timeout  time.Duration
)

// rootCmd runs the interactive portal
var rootCmd = &cobra.Command{
	Use:   "wave-portal",
	Short: "Wave at the WavePortal contract from your terminal",
	Long: `Connect a wallet, send a short message ("wave") to the WavePortal
contract and watch new waves arrive live.

Configuration comes from the environment:
  ETH_RPC_URL            RPC endpoint (ws:// for live updates)
  WAVE_CONTRACT_ADDRESS  contract address
  WAVE_KEYSTORE_DIR      go-ethereum keystore directory
  WAVE_PRIVATE_KEY       raw hex key for development chains
  WAVE_GAS_LIMIT         gas ceiling for wave transactions
  WAVE_EXPLORER_URL      block explorer base URL
  WAVE_CONFIG_PATH       config file path`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// listCmd prints the wave history
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every wave, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// watchCmd streams NewWave events
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream new waves until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

// sendCmd submits a wave
var sendCmd = &cobra.Command{
	Use:   "send MESSAGE",
	Short: "Send a wave and wait for it to be mined",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout for list and send")
	sendCmd.Flags().StringVar(&fromAddr, "from", "", "Keystore account to send from (default: first account)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(sendCmd)
}

// session is what every command needs before it can talk to the portal
type session struct {
	env      config.Env
	cfg      config.Config
	provider wallet.Provider
}

func loadSession() (*session, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	cfg := config.Load(env.ConfigPath)
	provider, err := wallet.Detect(wallet.Options{
		KeystoreDir: env.KeystoreDir,
		PrivateKey:  env.PrivateKey,
		Authorized:  cfg.Authorized,
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	return &session{env: env, cfg: cfg, provider: provider}, nil
}

// dial connects to the active RPC endpoint and binds the contract
func (s *session) dial(logger *log.Logger) (*portal.Controller, *rpc.Client, error) {
	url := s.cfg.ActiveRPC(s.env.RPCURL)
	if url == "" {
		return nil, nil, errors.New("no RPC endpoint: set ETH_RPC_URL")
	}
	result := rpc.Connect(url)
	if result.Error != nil {
		return nil, nil, fmt.Errorf("rpc connect: %w", result.Error)
	}
	logger.Debug("RPC connected", "url", url)

	ctrl, err := newController(result.Client, s.env, s.provider,
		portal.WithGasLimit(s.env.GasLimit),
		portal.WithLogger(logger),
	)
	if err != nil {
		result.Client.Close()
		return nil, nil, err
	}
	return ctrl, result.Client, nil
}

func cliLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func runTUI(cmd *cobra.Command, args []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	m := newModel(s.env, s.cfg, s.provider)
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	m.teardown()
	m.awaitClosing(3 * time.Second)
	if m.ethClient != nil {
		m.ethClient.Close()
	}
	return err
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	ctrl, client, err := s.dial(cliLogger())
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	ev := ctrl.FetchAllMessages(ctx)
	if failed, ok := ev.(portal.FetchFailed); ok {
		return failed.Err
	}
	state := portal.Reduce(portal.State{}, ev)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Number of messages: %d\n\n", state.Count)
	for _, w := range state.Waves {
		printWave(out, w)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	logger := cliLogger()
	ctrl, client, err := s.dial(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed, err := ctrl.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer feed.Unsubscribe()

	logger.Info("Watching for waves", "contract", s.env.ContractAddress)
	out := cmd.OutOrStdout()
	for {
		select {
		case w, ok := <-feed.C():
			if !ok {
				return feed.Err()
			}
			printWave(out, w)
		case <-ctx.Done():
			return nil
		}
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	text := args[0]
	if !portal.ValidDraft(text) {
		return portal.ErrInvalidDraft
	}

	s, err := loadSession()
	if err != nil {
		return err
	}
	logger := cliLogger()
	ctrl, client, err := s.dial(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if !ctrl.DetectWallet() {
		return wallet.ErrNoProvider
	}

	req := wallet.AccessRequest{}
	if fromAddr != "" {
		if !common.IsHexAddress(fromAddr) {
			return fmt.Errorf("invalid --from address %q", fromAddr)
		}
		req.Account = common.HexToAddress(fromAddr)
	} else if acct, ok := ctrl.SilentConnect(ctx); ok {
		req.Account = acct
	}
	if s.provider.RequiresPassphrase() {
		req.Passphrase, err = promptPassphrase()
		if err != nil {
			return err
		}
	}
	account, err := ctrl.Connect(ctx, req)
	if err != nil {
		return err
	}

	logger.Info("Sending wave", "from", account.Hex(), "message", text)
	switch ev := ctrl.SubmitMessage(ctx, account, text).(type) {
	case portal.SubmitMined:
		if s.cfg.Authorize(account.Hex()) {
			if err := config.Save(s.env.ConfigPath, s.cfg); err != nil {
				logger.Warn("Saving config failed", "err", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Thank you! Number of messages: %d\n%s\n",
			ev.Count, helpers.TxURL(s.env.ExplorerURL, ev.TxHash.Hex()))
		return nil
	case portal.SubmitFailed:
		return ev.Err
	default:
		return fmt.Errorf("unexpected result %T", ev)
	}
}

func printWave(out io.Writer, w portal.Wave) {
	fmt.Fprintf(out, "Address: %s\nTime:    %s\nMessage: %s\n\n",
		w.Sender.Hex(), helpers.FormatWaveTime(w.Timestamp), w.Message)
}

// promptPassphrase reads the keystore passphrase without echo
func promptPassphrase() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal: run interactively to enter the passphrase")
	}
	fmt.Fprint(os.Stderr, "Keystore passphrase: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	pass := strings.TrimRight(string(raw), "\r\n")
	clear(raw)
	return pass, nil
}
