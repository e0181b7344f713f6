package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Keyed is a Provider holding a single raw private key, meant for local
// development chains. Its account is always authorized.
type Keyed struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeyed parses a hex private key with or without 0x prefix
func NewKeyed(hexKey string) (*Keyed, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Keyed{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (k *Keyed) Name() string                { return "private key" }
func (k *Keyed) RequiresPassphrase() bool    { return false }
func (k *Keyed) Available() []common.Address { return []common.Address{k.address} }

func (k *Keyed) Accounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []common.Address{k.address}, nil
}

func (k *Keyed) RequestAccounts(ctx context.Context, req AccessRequest) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Account != (common.Address{}) && req.Account != k.address {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, req.Account.Hex())
	}
	return []common.Address{k.address}, nil
}

func (k *Keyed) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if account != k.address {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}
	opts, err := bind.NewKeyedTransactorWithChainID(k.key, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}
