package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// ErrReverted is returned when a mined wave transaction failed on chain
var ErrReverted = errors.New("transaction reverted")

// Backend is everything the binding needs from an Ethereum client.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// RawWave is one record as returned by getAllWaves
type RawWave struct {
	Waver     common.Address
	Message   string
	Timestamp *big.Int
}

// NewWave is a decoded NewWave event
type NewWave struct {
	From      common.Address
	Timestamp *big.Int
	Message   string
	Raw       types.Log
}

// ParseABI parses the WavePortal ABI
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(waveportalABI))
}

// WavePortal is a typed binding to a deployed WavePortal contract
type WavePortal struct {
	address  common.Address
	abi      abi.ABI
	backend  Backend
	contract *bind.BoundContract
}

// New binds the WavePortal contract at address
func New(address common.Address, backend Backend) (*WavePortal, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse WavePortal ABI: %w", err)
	}
	return &WavePortal{
		address:  address,
		abi:      parsed,
		backend:  backend,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the bound contract address
func (p *WavePortal) Address() common.Address {
	return p.address
}

// ChainID returns the chain the backend is connected to
func (p *WavePortal) ChainID(ctx context.Context) (*big.Int, error) {
	return p.backend.ChainID(ctx)
}

// GetAllWaves calls getAllWaves() and returns the records in contract order
func (p *WavePortal) GetAllWaves(ctx context.Context) ([]RawWave, error) {
	var out []interface{}
	if err := p.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAllWaves"); err != nil {
		return nil, fmt.Errorf("getAllWaves: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("getAllWaves: empty result")
	}
	waves := *abi.ConvertType(out[0], new([]RawWave)).(*[]RawWave)
	return waves, nil
}

// GetTotalWaves calls getTotalWaves()
func (p *WavePortal) GetTotalWaves(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := p.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getTotalWaves"); err != nil {
		return nil, fmt.Errorf("getTotalWaves: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("getTotalWaves: empty result")
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Wave sends a wave(message) transaction
func (p *WavePortal) Wave(opts *bind.TransactOpts, message string) (*types.Transaction, error) {
	tx, err := p.contract.Transact(opts, "wave", message)
	if err != nil {
		return nil, fmt.Errorf("wave: %w", err)
	}
	return tx, nil
}

// WaitMined blocks until tx is included and fails if its receipt is unsuccessful
func (p *WavePortal) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, p.backend, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex())
	}
	return receipt, nil
}

// WatchNewWave streams decoded NewWave events into sink until the
// subscription is cancelled or fails
func (p *WavePortal) WatchNewWave(opts *bind.WatchOpts, sink chan<- *NewWave) (event.Subscription, error) {
	logs, sub, err := p.contract.WatchLogs(opts, "NewWave")
	if err != nil {
		return nil, fmt.Errorf("watch NewWave: %w", err)
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case log := <-logs:
				ev, err := p.ParseNewWave(log)
				if err != nil {
					return err
				}
				select {
				case sink <- ev:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// ParseNewWave decodes a NewWave log
func (p *WavePortal) ParseNewWave(log types.Log) (*NewWave, error) {
	ev := new(NewWave)
	if err := p.contract.UnpackLog(ev, "NewWave", log); err != nil {
		return nil, fmt.Errorf("unpack NewWave: %w", err)
	}
	ev.Raw = log
	return ev, nil
}
