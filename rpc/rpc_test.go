package rpc

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETH_RPC_URL not set, skipping connection test")
	}

	t.Run("successful connection", func(t *testing.T) {
		result := Connect(rpcURL)
		require.NoError(t, result.Error)
		require.NotNil(t, result.Client)
		assert.Equal(t, rpcURL, result.Client.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		chainID, err := result.Client.ChainID(ctx)
		if assert.NoError(t, err) {
			t.Logf("Connected to chain ID: %s", chainID.String())
		}
	})

	t.Run("connection with timeout", func(t *testing.T) {
		result := ConnectWithTimeout(rpcURL, 10*time.Second)
		require.NoError(t, result.Error)
		require.NotNil(t, result.Client)
	})
}

func TestConnectUnsupportedScheme(t *testing.T) {
	result := ConnectWithTimeout("ftp://example.invalid", time.Second)
	assert.Error(t, result.Error)
	assert.Nil(t, result.Client)
}

func TestLoadAccount(t *testing.T) {
	addr := common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")

	t.Run("nil client", func(t *testing.T) {
		d := LoadAccount(nil, addr)
		assert.True(t, strings.Contains(d.ErrMessage, "No RPC client"))
		assert.Equal(t, addr.Hex(), d.Address)
		assert.Equal(t, 0, d.EthWei.Sign())
		assert.False(t, d.LoadedAt.IsZero())
	})

	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETH_RPC_URL not set, skipping account details test")
	}

	conn := Connect(rpcURL)
	require.NoError(t, conn.Error)

	t.Run("live account", func(t *testing.T) {
		d := LoadAccount(conn.Client, addr)
		if d.ErrMessage != "" {
			t.Logf("Got error message (may be due to rate limiting): %s", d.ErrMessage)
			return
		}
		require.NotNil(t, d.ChainID)
		t.Logf("Chain %s, balance %s wei", d.ChainID, d.EthWei)
	})
}

func TestGenerateQRCode(t *testing.T) {
	assert.Empty(t, GenerateQRCode(""))

	qr := GenerateQRCode("https://rinkeby.etherscan.io/tx/0xabc")
	assert.NotEmpty(t, qr)
	assert.Greater(t, strings.Count(qr, "\n"), 5)
}
