package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// TokenGenesis seeds the reference ledger with an asset and optional opening
// balances when the data directory is empty.
type TokenGenesis struct {
	Asset         string            `toml:"Asset"`
	Symbol        string            `toml:"Symbol"`
	Decimals      uint8             `toml:"Decimals"`
	MintAuthority string            `toml:"MintAuthority"`
	Balances      map[string]string `toml:"Balances"`
}

// Config is the auctiond daemon configuration.
type Config struct {
	RPCAddress string `toml:"RPCAddress"`
	DataDir    string `toml:"DataDir"`
	// Memory switches the store to an in-memory backend; state is lost on
	// shutdown.
	Memory      bool   `toml:"Memory"`
	NetworkName string `toml:"NetworkName"`
	// GenesisUnix anchors the logical counter; CounterIntervalSeconds is the
	// wall-clock length of one counter unit.
	GenesisUnix            int64 `toml:"GenesisUnix"`
	CounterIntervalSeconds int64 `toml:"CounterIntervalSeconds"`
	// RPCAuthToken guards mutating RPC methods when set. The
	// AUCTIOND_RPC_TOKEN environment variable overrides it.
	RPCAuthToken string         `toml:"RPCAuthToken"`
	Tokens       []TokenGenesis `toml:"Tokens"`
}

const defaultConfig = `RPCAddress = "127.0.0.1:8645"
DataDir = "./auctiond-data"
NetworkName = "localnet"
CounterIntervalSeconds = 1
`

// Load reads the configuration from path, creating a commented default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o600); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if _, err := toml.Decode(defaultConfig, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	if tok := os.Getenv("AUCTIOND_RPC_TOKEN"); tok != "" {
		cfg.RPCAuthToken = tok
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if c.RPCAddress == "" {
		return fmt.Errorf("config: RPCAddress required")
	}
	if _, _, err := net.SplitHostPort(c.RPCAddress); err != nil {
		return fmt.Errorf("config: invalid RPCAddress %q: %w", c.RPCAddress, err)
	}
	if !c.Memory && c.DataDir == "" {
		return fmt.Errorf("config: DataDir required unless Memory is set")
	}
	if c.CounterIntervalSeconds < 0 {
		return fmt.Errorf("config: CounterIntervalSeconds must be non-negative")
	}
	if c.NetworkName == "" {
		c.NetworkName = "localnet"
	}
	if c.CounterIntervalSeconds == 0 {
		c.CounterIntervalSeconds = 1
	}
	return nil
}
