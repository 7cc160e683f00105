package config

// Config holds all w3bond configuration.
type Config struct {
	DefaultWallet string `json:"default_wallet"`
	DefaultMarket string `json:"default_market"`
	DefaultToken  string `json:"default_token"`

	// Slope of newly deployed markets, decimal integers.
	SlopeNum string `json:"slope_num"`
	SlopeDen string `json:"slope_den"`
	Decimals uint8  `json:"decimals"`

	StateBackend string `json:"state_backend"` // "bolt" | "json"
	LogLevel     string `json:"log_level"`
	LogFile      string `json:"log_file,omitempty"`

	// Largest single faucet credit, in ether.
	FaucetLimit string `json:"faucet_limit"`

	// internal: config dir path used for Save()
	configDir string
}
