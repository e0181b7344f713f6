package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		unsetEnv(t, "ETH_RPC_URL", "WAVE_CONTRACT_ADDRESS", "WAVE_GAS_LIMIT", "WAVE_CONFIG_PATH")

		env, err := LoadEnv()
		require.NoError(t, err)

		assert.Equal(t, DefaultContractAddress, env.ContractAddress)
		assert.Equal(t, uint64(DefaultGasLimit), env.GasLimit)
		assert.Equal(t, DefaultPath(), env.ConfigPath)
		assert.Empty(t, env.RPCURL)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("ETH_RPC_URL", "  ws://127.0.0.1:8546 ")
		t.Setenv("WAVE_GAS_LIMIT", "500000")
		t.Setenv("WAVE_CONFIG_PATH", "/tmp/wave.json")

		env, err := LoadEnv()
		require.NoError(t, err)

		assert.Equal(t, "ws://127.0.0.1:8546", env.RPCURL)
		assert.Equal(t, uint64(500000), env.GasLimit)
		assert.Equal(t, "/tmp/wave.json", env.ConfigPath)
	})

	t.Run("invalid gas limit", func(t *testing.T) {
		t.Setenv("WAVE_GAS_LIMIT", "lots")

		_, err := LoadEnv()
		assert.Error(t, err)
	})
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Config{
		RPCURLs:    []RPCUrl{{Name: "Local", URL: "ws://127.0.0.1:8546", Active: true}},
		Authorized: []string{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		Logger:     true,
	}
	require.NoError(t, Save(path, cfg))

	assert.Equal(t, cfg, Load(path))
}

func TestLoadMissing(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Empty(t, cfg.RPCURLs)
	assert.False(t, cfg.Logger)
}

func TestActiveRPC(t *testing.T) {
	t.Run("env seeds empty config", func(t *testing.T) {
		var cfg Config
		assert.Equal(t, "http://env", cfg.ActiveRPC("http://env"))
		require.Len(t, cfg.RPCURLs, 1)
		assert.True(t, cfg.RPCURLs[0].Active)
	})

	t.Run("config wins over env", func(t *testing.T) {
		cfg := Config{RPCURLs: []RPCUrl{
			{Name: "A", URL: "http://a"},
			{Name: "B", URL: "http://b", Active: true},
		}}
		assert.Equal(t, "http://b", cfg.ActiveRPC("http://env"))
	})

	t.Run("nothing configured", func(t *testing.T) {
		var cfg Config
		assert.Empty(t, cfg.ActiveRPC(""))
	})
}

func TestAuthorize(t *testing.T) {
	var cfg Config
	assert.True(t, cfg.Authorize("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	assert.False(t, cfg.Authorize("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	assert.Len(t, cfg.Authorized, 1)
}
