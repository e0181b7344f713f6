package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Page identifies the active TUI page
type Page int

const (
	PageWaves Page = iota
	PageSettings
)

// DefaultContractAddress is the deployed WavePortal contract
const DefaultContractAddress = "0x44dD0568Ae1b25C8E36c5183154745a7F615dcd0"

// DefaultGasLimit is the gas ceiling used for wave transactions
const DefaultGasLimit = 300000

// Config represents the application configuration file
type Config struct {
	RPCURLs    []RPCUrl `json:"rpc_urls"`
	Authorized []string `json:"authorized"`
	Logger     bool     `json:"logger"`
}

// RPCUrl represents an RPC endpoint
type RPCUrl struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Env holds settings read from the environment
type Env struct {
	RPCURL          string `envconfig:"ETH_RPC_URL"`
	ContractAddress string `envconfig:"WAVE_CONTRACT_ADDRESS" default:"0x44dD0568Ae1b25C8E36c5183154745a7F615dcd0"`
	KeystoreDir     string `envconfig:"WAVE_KEYSTORE_DIR"`
	PrivateKey      string `envconfig:"WAVE_PRIVATE_KEY"`
	GasLimit        uint64 `envconfig:"WAVE_GAS_LIMIT" default:"300000"`
	ExplorerURL     string `envconfig:"WAVE_EXPLORER_URL" default:"https://rinkeby.etherscan.io"`
	ConfigPath      string `envconfig:"WAVE_CONFIG_PATH"`
}

// LoadEnv reads Env from environment variables
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("failed to process env: %w", err)
	}
	env.RPCURL = strings.TrimSpace(env.RPCURL)
	if env.ConfigPath == "" {
		env.ConfigPath = DefaultPath()
	}
	return env, nil
}

// DefaultPath returns ~/.wave-portal-config.json
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".wave-portal-config.json")
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ActiveRPC returns the URL of the active endpoint, falling back to the env URL.
// When the config has no endpoints and the env URL is set, the env URL is
// added as the default endpoint.
func (c *Config) ActiveRPC(envURL string) string {
	if len(c.RPCURLs) == 0 && envURL != "" {
		c.RPCURLs = []RPCUrl{{Name: "Default", URL: envURL, Active: true}}
	}
	for _, r := range c.RPCURLs {
		if r.Active {
			return r.URL
		}
	}
	return envURL
}

// Authorize records an account as authorized for silent reconnection.
// It reports whether the list changed.
func (c *Config) Authorize(addr string) bool {
	for _, a := range c.Authorized {
		if strings.EqualFold(a, addr) {
			return false
		}
	}
	c.Authorized = append(c.Authorized, addr)
	return true
}
