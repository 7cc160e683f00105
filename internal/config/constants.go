package config

// Defaults for a fresh config.json. The slope prices each whole unit of
// supply at 10^12 wei.
const (
	DefaultSlopeNum     = "1000000000000"
	DefaultSlopeDen     = "1000000000000000000"
	DefaultDecimals     = uint8(18)
	DefaultStateBackend = "bolt"
	DefaultLogLevel     = "warn"
	DefaultFaucetLimit  = "100"
)
