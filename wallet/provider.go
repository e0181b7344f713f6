package wallet

import (
	"context"
	"errors"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNoProvider means no wallet is available in this environment
	ErrNoProvider = errors.New("no wallet provider found")
	// ErrUserRejected means the user declined an access or signing request
	ErrUserRejected = errors.New("user rejected the request")
	// ErrLocked means the account must be unlocked before it can sign
	ErrLocked = errors.New("account is locked")
	// ErrUnknownAccount means the requested account is not held by the provider
	ErrUnknownAccount = errors.New("unknown account")
)

// AccessRequest is an explicit request for account access
type AccessRequest struct {
	Account    common.Address // zero means the provider's first account
	Passphrase string
}

// Provider grants access to accounts and transaction signing
type Provider interface {
	// Name identifies the provider in logs and the UI
	Name() string
	// RequiresPassphrase reports whether RequestAccounts needs a passphrase
	RequiresPassphrase() bool
	// Available lists every account the provider holds, authorized or not
	Available() []common.Address
	// Accounts returns already-authorized accounts without prompting
	Accounts(ctx context.Context) ([]common.Address, error)
	// RequestAccounts asks for access and returns the granted accounts
	RequestAccounts(ctx context.Context, req AccessRequest) ([]common.Address, error)
	// Transactor returns signing options for account on chainID
	Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}

// Locker is implemented by providers whose accounts must be unlocked in
// every run before they can sign
type Locker interface {
	Unlocked(account common.Address) bool
}

// NeedsUnlock reports whether p holds account but cannot sign for it yet
func NeedsUnlock(p Provider, account common.Address) bool {
	l, ok := p.(Locker)
	return ok && !l.Unlocked(account)
}

// Options selects how a provider is discovered
type Options struct {
	KeystoreDir string
	PrivateKey  string
	Authorized  []string
}

// Detect returns the provider configured in opts, or nil when none is present.
// A raw private key takes precedence over a keystore directory.
func Detect(opts Options) (Provider, error) {
	if opts.PrivateKey != "" {
		k, err := NewKeyed(opts.PrivateKey)
		if err != nil {
			return nil, err
		}
		return k, nil
	}
	if opts.KeystoreDir == "" {
		return nil, nil
	}
	info, err := os.Stat(opts.KeystoreDir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	ks := NewKeystore(OpenKeystore(opts.KeystoreDir), parseAddresses(opts.Authorized)...)
	if len(ks.Available()) == 0 {
		return nil, nil
	}
	return ks, nil
}

func parseAddresses(in []string) []common.Address {
	out := make([]common.Address, 0, len(in))
	for _, s := range in {
		if common.IsHexAddress(s) {
			out = append(out, common.HexToAddress(s))
		}
	}
	return out
}
