package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

// OpenKeystore opens an encrypted key directory with standard scrypt parameters
func OpenKeystore(dir string) *keystore.KeyStore {
	return keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
}

// Keystore is a Provider backed by an encrypted go-ethereum key directory.
// Authorized accounts are remembered across runs by the caller; unlocking
// happens per run through RequestAccounts.
type Keystore struct {
	ks *keystore.KeyStore

	mu         sync.Mutex
	authorized map[common.Address]bool
	unlocked   map[common.Address]bool
}

// NewKeystore wraps ks, treating authorized as previously granted accounts
func NewKeystore(ks *keystore.KeyStore, authorized ...common.Address) *Keystore {
	k := &Keystore{
		ks:         ks,
		authorized: make(map[common.Address]bool),
		unlocked:   make(map[common.Address]bool),
	}
	for _, a := range authorized {
		k.authorized[a] = true
	}
	return k
}

func (k *Keystore) Name() string             { return "keystore" }
func (k *Keystore) RequiresPassphrase() bool { return true }

func (k *Keystore) Available() []common.Address {
	accs := k.ks.Accounts()
	out := make([]common.Address, 0, len(accs))
	for _, a := range accs {
		out = append(out, a.Address)
	}
	return out
}

func (k *Keystore) Accounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	var out []common.Address
	for _, a := range k.ks.Accounts() {
		if k.authorized[a.Address] {
			out = append(out, a.Address)
		}
	}
	return out, nil
}

func (k *Keystore) RequestAccounts(ctx context.Context, req AccessRequest) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acct, err := k.find(req.Account)
	if err != nil {
		return nil, err
	}
	if err := k.ks.Unlock(acct, req.Passphrase); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, fmt.Errorf("%w: %v", ErrUserRejected, err)
		}
		return nil, fmt.Errorf("unlock %s: %w", acct.Address.Hex(), err)
	}

	k.mu.Lock()
	k.authorized[acct.Address] = true
	k.unlocked[acct.Address] = true
	k.mu.Unlock()

	return []common.Address{acct.Address}, nil
}

// Unlocked reports whether account was unlocked in this run
func (k *Keystore) Unlocked(account common.Address) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.unlocked[account]
}

func (k *Keystore) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	acct, err := k.find(account)
	if err != nil {
		return nil, err
	}
	if !k.Unlocked(acct.Address) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, acct.Address.Hex())
	}

	opts, err := bind.NewKeyStoreTransactorWithChainID(k.ks, acct, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

func (k *Keystore) find(addr common.Address) (accounts.Account, error) {
	if addr == (common.Address{}) {
		accs := k.ks.Accounts()
		if len(accs) == 0 {
			return accounts.Account{}, ErrUnknownAccount
		}
		return accs[0], nil
	}
	acct, err := k.ks.Find(accounts.Account{Address: addr})
	if err != nil {
		return accounts.Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, addr.Hex())
	}
	return acct, nil
}
