package rpc

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps an Ethereum RPC client
type Client struct {
	*ethclient.Client
	URL string
}

// ConnectResult holds the result of an RPC connection attempt
type ConnectResult struct {
	Client *Client
	Error  error
}

// Connect attempts to connect to an Ethereum RPC endpoint
func Connect(url string) ConnectResult {
	return ConnectWithTimeout(url, 8*time.Second)
}

// ConnectWithTimeout attempts to connect with a custom timeout
func ConnectWithTimeout(url string, timeout time.Duration) ConnectResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return ConnectResult{Client: nil, Error: err}
	}

	return ConnectResult{
		Client: &Client{
			Client: client,
			URL:    url,
		},
		Error: nil,
	}
}

// AccountDetails describes the connected account on the current chain
type AccountDetails struct {
	Address    string
	EthWei     *big.Int
	ChainID    *big.Int
	LoadedAt   time.Time
	ErrMessage string
}

// LoadAccount fetches the ETH balance and chain id for an address
func LoadAccount(client *Client, addr common.Address) AccountDetails {
	return LoadAccountWithTimeout(client, addr, 12*time.Second)
}

// LoadAccountWithTimeout fetches account details with a custom timeout
func LoadAccountWithTimeout(client *Client, addr common.Address, timeout time.Duration) AccountDetails {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	d := AccountDetails{
		Address:  addr.Hex(),
		EthWei:   big.NewInt(0),
		LoadedAt: time.Now(),
	}

	if client == nil || client.Client == nil {
		d.ErrMessage = "No RPC client (set ETH_RPC_URL)."
		return d
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		d.ErrMessage = "Failed to load chain id."
		return d
	}
	d.ChainID = chainID

	wei, err := client.BalanceAt(ctx, addr, nil)
	if err != nil {
		d.ErrMessage = "Failed to load ETH balance."
		return d
	}
	d.EthWei = wei

	return d
}
