package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/units"
	"github.com/holiman/uint256"
	"go.uber.org/zap/zapcore"
)

const configFile = "config.json"

// Errors.
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.w3bond.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3bond")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, _, err := c.Slope(); err != nil {
		return err
	}
	switch c.StateBackend {
	case "bolt", "json":
	default:
		return fmt.Errorf("%w: state_backend %q (want bolt or json)", ErrInvalidValue, c.StateBackend)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidValue, err)
	}
	if c.Decimals > ledger.MaxDecimals {
		return fmt.Errorf("%w: decimals %d (0-%d)", ErrInvalidValue, c.Decimals, ledger.MaxDecimals)
	}
	if _, err := c.FaucetMax(); err != nil {
		return err
	}
	return nil
}

// Slope returns the default slope of new markets.
func (c *Config) Slope() (num, den *uint256.Int, err error) {
	num, err = uint256.FromDecimal(c.SlopeNum)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: slope_num %q", ErrInvalidValue, c.SlopeNum)
	}
	den, err = uint256.FromDecimal(c.SlopeDen)
	if err != nil || den.IsZero() {
		return nil, nil, fmt.Errorf("%w: slope_den %q must be a positive integer", ErrInvalidValue, c.SlopeDen)
	}
	return num, den, nil
}

// FaucetMax returns the faucet limit in wei.
func (c *Config) FaucetMax() (*uint256.Int, error) {
	v, err := units.ParseUnits(c.FaucetLimit, 18)
	if err != nil {
		return nil, fmt.Errorf("%w: faucet_limit: %v", ErrInvalidValue, err)
	}
	return v, nil
}

// setters maps `config set` keys onto fields.
var setters = map[string]func(c *Config, v string) error{
	"default_wallet": func(c *Config, v string) error { c.DefaultWallet = v; return nil },
	"default_market": func(c *Config, v string) error { c.DefaultMarket = v; return nil },
	"default_token":  func(c *Config, v string) error { c.DefaultToken = v; return nil },
	"slope_num":      func(c *Config, v string) error { c.SlopeNum = v; return nil },
	"slope_den":      func(c *Config, v string) error { c.SlopeDen = v; return nil },
	"decimals": func(c *Config, v string) error {
		d, err := strconv.ParseUint(v, 10, 8)
		if err != nil || d > ledger.MaxDecimals {
			return fmt.Errorf("%w: decimals %q (0-%d)", ErrInvalidValue, v, ledger.MaxDecimals)
		}
		c.Decimals = uint8(d)
		return nil
	},
	"state_backend": func(c *Config, v string) error { c.StateBackend = v; return nil },
	"log_level":     func(c *Config, v string) error { c.LogLevel = v; return nil },
	"log_file":      func(c *Config, v string) error { c.LogFile = v; return nil },
	"faucet_limit":  func(c *Config, v string) error { c.FaucetLimit = v; return nil },
}

// Set updates one key and validates the result. On error c is unchanged.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("%w %q: valid keys are %v", ErrUnknownKey, key, Keys())
	}
	next := *c
	if err := set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Get returns the string form of a key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "default_wallet":
		return c.DefaultWallet, nil
	case "default_market":
		return c.DefaultMarket, nil
	case "default_token":
		return c.DefaultToken, nil
	case "slope_num":
		return c.SlopeNum, nil
	case "slope_den":
		return c.SlopeDen, nil
	case "decimals":
		return strconv.Itoa(int(c.Decimals)), nil
	case "state_backend":
		return c.StateBackend, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	case "faucet_limit":
		return c.FaucetLimit, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKey, key)
}

// Keys returns every settable key, sorted.
func Keys() []string {
	out := make([]string, 0, len(setters))
	for k := range setters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		SlopeNum:     DefaultSlopeNum,
		SlopeDen:     DefaultSlopeDen,
		Decimals:     DefaultDecimals,
		StateBackend: DefaultStateBackend,
		LogLevel:     DefaultLogLevel,
		FaucetLimit:  DefaultFaucetLimit,
		configDir:    dir,
	}
}
