package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/w3bond/internal/chain"
	"github.com/Mohsinsiddi/w3bond/internal/contract"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/token"
	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/Mohsinsiddi/w3bond/internal/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

// ── flag vars ─────────────────────────────────────────────────────────────────

var (
	tokenFlag   string
	tokenWallet string

	// deploy
	tokenName     string
	tokenSymbol   string
	tokenDecimals uint8

	// mint
	tokenTo     string
	tokenAmount string

	tokenYes bool
)

// ── root token command ────────────────────────────────────────────────────────

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Deploy and manage mintable ERC-20 tokens",
	Long: `Deploy and manage owner-mintable ERC-20 tokens with a one-time public
mint.

Sub-commands:
  w3bond token deploy       deploy a new token; the deployer is the owner
  w3bond token mint         mint tokens (owner only)
  w3bond token public-mint  claim one whole token, once per address
  w3bond token info         supply, owner and your balance`,
}

// tokenSelected returns the selected token.
func tokenSelected() (string, error) {
	return selected("token", tokenFlag, cfg.DefaultToken)
}

// withToken runs fn against the selected token inside a store transaction.
func withToken(cmd *cobra.Command, fn func(l *chain.Local, t *token.MintableToken) error) error {
	name, err := tokenSelected()
	if err != nil {
		return err
	}
	return updateChain(cmd.Context(), func(l *chain.Local) error {
		t, err := l.Token(name)
		if err != nil {
			return err
		}
		return fn(l, t)
	})
}

// ── token deploy ──────────────────────────────────────────────────────────────

var tokenDeployCmd = &cobra.Command{
	Use:   "deploy <name>",
	Short: "Deploy a new mintable ERC-20 token",
	Long: `Deploy a new token with zero supply. The deployer wallet becomes the
owner and may mint; any address may claim one whole token once with
public-mint.

Examples:
  w3bond token deploy faucet --symbol FCT
  w3bond token deploy usd --symbol USDX --decimals 6`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		meta := ledger.Metadata{Name: tokenName, Symbol: tokenSymbol, Decimals: cfg.Decimals}
		if cmd.Flags().Changed("decimals") {
			meta.Decimals = tokenDecimals
		}
		if meta.Name == "" {
			meta.Name = name
		}
		if meta.Symbol == "" {
			meta.Symbol = strings.ToUpper(name)
		}
		if err := meta.Validate(); err != nil {
			return fmt.Errorf("--decimals: %w", err)
		}

		owner, err := deployer(walletOrDefault(tokenWallet), contract.KindMintableToken, name)
		if err != nil {
			return err
		}

		var addr common.Address
		err = updateChain(cmd.Context(), func(l *chain.Local) error {
			t, err := l.DeployToken(owner, name, meta)
			if err != nil {
				return err
			}
			addr = t.Address()
			return nil
		})
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Token Deployed", [][2]string{
			{"Name", ui.Name(name)},
			{"Address", ui.Addr(addr.Hex())},
			{"Token", fmt.Sprintf("%s (%s), %d decimals", meta.Name, meta.Symbol, meta.Decimals)},
			{"Owner", ui.Addr(owner.Hex())},
		}))
		if cfg.DefaultToken == "" {
			cfg.DefaultToken = name
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Println(ui.Hint(fmt.Sprintf("%q is now the default token.", name)))
		}
		return nil
	},
}

// ── token list ────────────────────────────────────────────────────────────────

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployed tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewChain(cmd.Context(), func(l *chain.Local) error {
			names := l.TokenNames()
			if len(names) == 0 {
				fmt.Println(ui.Info("No tokens deployed yet."))
				fmt.Println(ui.Hint("Deploy one with: w3bond token deploy <name>"))
				return nil
			}
			tbl := ui.NewTable([]ui.Column{
				{Title: "Name", Width: 14},
				{Title: "Symbol", Width: 8},
				{Title: "Address", Width: 42},
				{Title: "Supply", Width: 20, Align: ui.AlignRight},
			})
			for _, name := range names {
				t, err := l.Token(name)
				if err != nil {
					return err
				}
				meta := t.Token()
				tbl.AddRow(ui.Row{name, meta.Symbol, t.Address().Hex(), units.FormatUnits(t.TotalSupply(), meta.Decimals)})
			}
			fmt.Println(tbl.Render())
			return nil
		})
	},
}

// ── token mint ────────────────────────────────────────────────────────────────

var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint tokens (owner only)",
	Long: `Mint new tokens to an address. Only the owner may mint; anyone else
fails with Unauthorized.

Examples:
  w3bond token mint --to alice --amount 1000
  w3bond token mint --to 0xRecipient --amount 0.5 --token faucet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenAmount == "" {
			return fmt.Errorf("--amount is required")
		}
		toName := tokenTo
		if toName == "" {
			toName = walletOrDefault(tokenWallet)
		}
		to, err := resolveAccount(toName)
		if err != nil {
			return err
		}

		var minted string
		err = withToken(cmd, func(l *chain.Local, t *token.MintableToken) error {
			meta := t.Token()
			amt, err := units.ParseUnits(tokenAmount, meta.Decimals)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			from, err := caller(walletOrDefault(tokenWallet), contract.KindMintableToken, t.Address(), "mint", to, amt)
			if err != nil {
				return err
			}
			if err := t.Mint(cmd.Context(), from, to, amt); err != nil {
				return err
			}
			minted = ui.Amount(amt, meta.Decimals, meta.Symbol)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Minted %s to %s", minted, ui.Addr(to.Hex()))))
		return nil
	},
}

var tokenPublicMintCmd = &cobra.Command{
	Use:   "public-mint",
	Short: "Claim one whole token (once per address)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var got string
		var who common.Address
		err := withToken(cmd, func(l *chain.Local, t *token.MintableToken) error {
			from, err := caller(walletOrDefault(tokenWallet), contract.KindMintableToken, t.Address(), "publicMint")
			if err != nil {
				return err
			}
			amt, err := t.PublicMint(cmd.Context(), from)
			if err != nil {
				return err
			}
			who, got = from, ui.Amount(amt, t.Token().Decimals, t.Token().Symbol)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Claimed %s for %s", got, ui.Addr(who.Hex()))))
		return nil
	},
}

// ── token info ────────────────────────────────────────────────────────────────

var tokenInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show supply, owner and your balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := tokenSelected()
		if err != nil {
			return err
		}
		return viewChain(cmd.Context(), func(l *chain.Local) error {
			t, err := l.Token(name)
			if err != nil {
				return err
			}
			meta := t.Token()
			owner := ui.Addr(t.Owner().Hex())
			if t.Owner() == (common.Address{}) {
				owner = ui.Meta("none (renounced)")
			}
			pairs := [][2]string{
				{"Address", ui.Addr(t.Address().Hex())},
				{"Token", fmt.Sprintf("%s (%s)", meta.Name, meta.Symbol)},
				{"Decimals", strconv.Itoa(int(meta.Decimals))},
				{"Total supply", ui.Amount(t.TotalSupply(), meta.Decimals, meta.Symbol)},
				{"Holders", strconv.Itoa(len(t.Holders()))},
				{"Owner", owner},
			}
			if w := walletOrDefault(tokenWallet); w != "" {
				if a, err := resolveAccount(w); err == nil {
					claimed := "no"
					if t.Claimed(a) {
						claimed = "yes"
					}
					pairs = append(pairs,
						[2]string{"Your balance", ui.Amount(t.BalanceOf(a), meta.Decimals, meta.Symbol)},
						[2]string{"Public mint used", claimed})
				}
			}
			fmt.Println(ui.KeyValueBlock("Token · "+name, pairs))
			return nil
		})
	},
}

// ── ownership ─────────────────────────────────────────────────────────────────

var tokenTransferOwnershipCmd = &cobra.Command{
	Use:   "transfer-ownership <new-owner>",
	Short: "Hand the owner role to another wallet or address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		next, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		if !tokenYes && !ui.Confirm(fmt.Sprintf("Make %s the owner? Only they can mint afterwards.", next.Hex())) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		err = withToken(cmd, func(l *chain.Local, t *token.MintableToken) error {
			from, err := caller(walletOrDefault(tokenWallet), contract.KindMintableToken, t.Address(), "transferOwnership", next)
			if err != nil {
				return err
			}
			return t.TransferOwnership(cmd.Context(), from, next)
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success("Ownership transferred to " + ui.Addr(next.Hex())))
		return nil
	},
}

var tokenRenounceCmd = &cobra.Command{
	Use:   "renounce",
	Short: "Give up ownership for good; nobody can mint afterwards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tokenYes && !ui.ConfirmDanger("Renounce ownership? Minting will be disabled forever.") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		err := withToken(cmd, func(l *chain.Local, t *token.MintableToken) error {
			from, err := caller(walletOrDefault(tokenWallet), contract.KindMintableToken, t.Address(), "renounceOwnership")
			if err != nil {
				return err
			}
			return t.RenounceOwnership(cmd.Context(), from)
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success("Ownership renounced."))
		return nil
	},
}

func init() {
	tokenCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "", "token name (default: config default_token)")
	tokenCmd.PersistentFlags().StringVarP(&tokenWallet, "wallet", "w", "", "signing wallet (default: config default_wallet)")

	tokenDeployCmd.Flags().StringVar(&tokenName, "token-name", "", "token name (default: deploy name)")
	tokenDeployCmd.Flags().StringVar(&tokenSymbol, "symbol", "", "token symbol (default: upper-cased name)")
	tokenDeployCmd.Flags().Uint8Var(&tokenDecimals, "decimals", 18, "token decimals (default: config decimals)")

	tokenMintCmd.Flags().StringVar(&tokenTo, "to", "", "recipient wallet or address (default: your wallet)")
	tokenMintCmd.Flags().StringVar(&tokenAmount, "amount", "", "amount in whole tokens")

	for _, c := range []*cobra.Command{tokenRenounceCmd, tokenTransferOwnershipCmd} {
		c.Flags().BoolVarP(&tokenYes, "yes", "y", false, "skip confirmation")
	}

	tokenCmd.AddCommand(
		tokenDeployCmd,
		tokenListCmd,
		tokenMintCmd,
		tokenPublicMintCmd,
		tokenInfoCmd,
		tokenTransferOwnershipCmd,
		tokenRenounceCmd,
		newEventsCmd("token", func(l *chain.Local) (common.Address, ledger.Metadata, error) {
			name, err := tokenSelected()
			if err != nil {
				return common.Address{}, ledger.Metadata{}, err
			}
			t, err := l.Token(name)
			if err != nil {
				return common.Address{}, ledger.Metadata{}, err
			}
			return t.Address(), t.Token(), nil
		}),
	)
	tokenCmd.AddCommand(newERC20Cmds(erc20Target{
		kind:   contract.KindMintableToken,
		name:   tokenSelected,
		wallet: func() string { return walletOrDefault(tokenWallet) },
		lookup: func(l *chain.Local, name string) (erc20, error) {
			t, err := l.Token(name)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
	})...)
}
