package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3bond/internal/config"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/logging"
	"github.com/Mohsinsiddi/w3bond/internal/market"
	"github.com/Mohsinsiddi/w3bond/internal/native"
	"github.com/Mohsinsiddi/w3bond/internal/token"
	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3bond/cmd.Version=1.2.3" .
var Version = ui.Version

// ConfigDirEnv overrides --config.
const ConfigDirEnv = "W3BOND_CONFIG_DIR"

var (
	cfgDir  string
	cfg     *config.Config
	logger  = zap.NewNop()
	verbose bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3bond",
	Short: "Bonding-curve token markets on a local ledger",
	Long: `w3bond runs bonding-curve token markets and mintable ERC-20 tokens
against a local, persistent ledger.

Each market sells one whole token at a time. The price rises linearly
with the supply and every payment is escrowed so the market can always
buy the supply back.

  w3bond wallet generate alice
  w3bond faucet alice 10
  w3bond market deploy bond --symbol BND
  w3bond market buy
  w3bond market status`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger, err = logging.New(logging.Options{
			Level:   cfg.LogLevel,
			Verbose: verbose,
			File:    cfg.LogFile,
		})
		if err != nil {
			return err
		}
		logger.Debug("config loaded", zap.String("dir", cfg.Dir()), zap.String("state", cfg.StateBackend))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync() //nolint:errcheck
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(describeError(err)))
		os.Exit(1)
	}
}

// errorNames maps sentinel errors to the names users see.
var errorNames = []struct {
	err  error
	name string
}{
	{market.ErrPaymentMismatch, "PaymentMismatch"},
	{market.ErrInvalidState, "InvalidState"},
	{market.ErrTransferFailed, "TransferFailed"},
	{market.ErrReentrantCall, "ReentrantCall"},
	{ledger.ErrInsufficientBalance, "InsufficientBalance"},
	{ledger.ErrInsufficientAllowance, "InsufficientAllowance"},
	{token.ErrAlreadyClaimed, "AlreadyClaimed"},
	{token.ErrUnauthorized, "Unauthorized"},
	{native.ErrInsufficientFunds, "InsufficientFunds"},
}

// describeError prefixes err with its taxonomy name when it has one.
func describeError(err error) string {
	for _, e := range errorNames {
		if errors.Is(err, e.err) {
			return e.name + ": " + err.Error()
		}
	}
	return err.Error()
}

func init() {
	if envDir := os.Getenv(ConfigDirEnv); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.w3bond)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(
		configCmd,
		walletCmd,
		faucetCmd,
		rejectCmd,
		balanceCmd,
		convertCmd,
		signCmd,
		verifyCmd,
		abiCmd,
		marketCmd,
		tokenCmd,
	)
}
