package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync/atomic"
	"time"

	"wave-portal/contract"
	"wave-portal/wallet"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

var (
	// ErrNoBackend means no contract connection is available yet
	ErrNoBackend = errors.New("no contract backend connected")
	// ErrInvalidDraft means the message is too short to send
	ErrInvalidDraft = fmt.Errorf("message must be longer than %d characters", MinDraftLength)
	// ErrNotConnected means no wallet account has been connected
	ErrNotConnected = errors.New("no wallet account connected")
)

// Backend is the contract surface the controller drives.
// *contract.WavePortal implements it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	GetAllWaves(ctx context.Context) ([]contract.RawWave, error)
	GetTotalWaves(ctx context.Context) (*big.Int, error)
	Wave(opts *bind.TransactOpts, message string) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	WatchNewWave(opts *bind.WatchOpts, sink chan<- *contract.NewWave) (event.Subscription, error)
}

// Controller performs wallet and contract operations and reports their
// outcome as Events. It holds no UI state of its own.
type Controller struct {
	backend  Backend
	wallet   wallet.Provider
	gasLimit uint64
	logger   *log.Logger
	feeds    atomic.Uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithGasLimit sets the gas ceiling for wave transactions
func WithGasLimit(limit uint64) Option {
	return func(c *Controller) { c.gasLimit = limit }
}

// WithLogger sets the logger; the default discards output
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a controller. backend and provider may be nil: a nil backend
// makes contract operations fail with ErrNoBackend and a nil provider is the
// "no wallet" condition.
func New(backend Backend, provider wallet.Provider, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		wallet:   provider,
		gasLimit: 300000,
		logger:   log.New(io.Discard),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// HasBackend reports whether contract calls can be made
func (c *Controller) HasBackend() bool {
	return c.backend != nil
}

// Wallet returns the wallet provider, nil when absent
func (c *Controller) Wallet() wallet.Provider {
	return c.wallet
}

// DetectWallet reports whether a wallet provider is present
func (c *Controller) DetectWallet() bool {
	if c.wallet == nil {
		c.logger.Warn("No wallet found, set WAVE_KEYSTORE_DIR or WAVE_PRIVATE_KEY")
		return false
	}
	c.logger.Info("Wallet provider available", "provider", c.wallet.Name())
	return true
}

// SilentConnect returns the first already-authorized account, without
// prompting. Provider errors are logged and reported as no account.
func (c *Controller) SilentConnect(ctx context.Context) (common.Address, bool) {
	if c.wallet == nil {
		return common.Address{}, false
	}
	accounts, err := c.wallet.Accounts(ctx)
	if err != nil {
		c.logger.Error("Silent connect failed", "err", err)
		return common.Address{}, false
	}
	if len(accounts) == 0 {
		c.logger.Info("No authorized account found")
		return common.Address{}, false
	}
	c.logger.Info("Found an authorized account", "account", accounts[0].Hex())
	return accounts[0], true
}

// Connect explicitly requests account access. It returns
// wallet.ErrNoProvider when no wallet is present.
func (c *Controller) Connect(ctx context.Context, req wallet.AccessRequest) (common.Address, error) {
	if c.wallet == nil {
		return common.Address{}, wallet.ErrNoProvider
	}
	accounts, err := c.wallet.RequestAccounts(ctx, req)
	if err != nil {
		c.logger.Error("Connect failed", "err", err)
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		return common.Address{}, wallet.ErrUserRejected
	}
	c.logger.Info("Connected", "account", accounts[0].Hex())
	return accounts[0], nil
}

// FetchAllMessages reads the full history. The result is WavesFetched in
// contract order or FetchFailed.
func (c *Controller) FetchAllMessages(ctx context.Context) Event {
	if c.backend == nil {
		c.logger.Warn("Cannot fetch waves", "err", ErrNoBackend)
		return FetchFailed{Err: ErrNoBackend}
	}
	raw, err := c.backend.GetAllWaves(ctx)
	if err != nil {
		c.logger.Error("Fetching waves failed", "err", err)
		return FetchFailed{Err: err}
	}
	waves := make([]Wave, 0, len(raw))
	for _, r := range raw {
		waves = append(waves, toWave(r.Waver, r.Timestamp, r.Message))
	}
	c.logger.Debug("Fetched waves", "count", len(waves))
	return WavesFetched{Waves: waves}
}

// SubmitMessage sends text as a wave from account, waits for it to be mined
// and re-reads the total count. The caller applies SubmitStarted first.
func (c *Controller) SubmitMessage(ctx context.Context, account common.Address, text string) Event {
	if !ValidDraft(text) {
		return c.submitFailed(ErrInvalidDraft)
	}
	if c.wallet == nil {
		return c.submitFailed(wallet.ErrNoProvider)
	}
	if c.backend == nil {
		return c.submitFailed(ErrNoBackend)
	}
	if account == (common.Address{}) {
		return c.submitFailed(ErrNotConnected)
	}

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return c.submitFailed(fmt.Errorf("chain id: %w", err))
	}
	opts, err := c.wallet.Transactor(ctx, account, chainID)
	if err != nil {
		return c.submitFailed(err)
	}
	opts.GasLimit = c.gasLimit

	tx, err := c.backend.Wave(opts, text)
	if err != nil {
		return c.submitFailed(err)
	}
	c.logger.Info("Mining...", "tx", tx.Hash().Hex())

	if _, err := c.backend.WaitMined(ctx, tx); err != nil {
		return c.submitFailed(err)
	}
	c.logger.Info("Mined", "tx", tx.Hash().Hex())

	total, err := c.backend.GetTotalWaves(ctx)
	if err != nil {
		return c.submitFailed(err)
	}
	return SubmitMined{Count: int(total.Int64()), TxHash: tx.Hash()}
}

func (c *Controller) submitFailed(err error) Event {
	c.logger.Error("Wave failed", "err", err)
	return SubmitFailed{Err: err}
}

// Subscribe opens a live feed of NewWave deliveries
func (c *Controller) Subscribe(ctx context.Context) (*Feed, error) {
	if c.backend == nil {
		return nil, ErrNoBackend
	}
	sink := make(chan *contract.NewWave, 16)
	sub, err := c.backend.WatchNewWave(&bind.WatchOpts{Context: ctx}, sink)
	if err != nil {
		c.logger.Error("Subscribing to NewWave failed", "err", err)
		return nil, err
	}
	f := newFeed(c.feeds.Add(1), sink, sub, c.logger)
	c.logger.Debug("Subscribed to NewWave", "feed", f.ID())
	return f, nil
}

func toWave(sender common.Address, ts *big.Int, message string) Wave {
	w := Wave{Sender: sender, Message: message}
	if ts != nil && ts.IsInt64() {
		w.Timestamp = time.Unix(ts.Int64(), 0)
	}
	return w
}
