package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3bond/internal/chain"
	"github.com/Mohsinsiddi/w3bond/internal/contract"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/market"
	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/Mohsinsiddi/w3bond/internal/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

// ── flag vars ─────────────────────────────────────────────────────────────────

var (
	marketFlag   string
	marketWallet string

	// deploy
	marketSlopeNum  string
	marketSlopeDen  string
	marketDecimals  uint8
	marketSymbol    string
	marketTokenName string

	marketQuote    int
	marketValue    string
	marketInterval time.Duration
)

// ── root market command ───────────────────────────────────────────────────────

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Deploy and trade bonding-curve markets",
	Long: `A market is an ERC-20 token sold one whole unit at a time along a
linear price curve:

  buy price  = supply × num / den
  sell price = (supply − 1 unit) × num / den

Payments stay in the market's escrow, which always covers selling the
entire supply back.

Sub-commands:
  w3bond market deploy   deploy a new market
  w3bond market buy      buy one unit at the current price
  w3bond market sell     sell one unit back
  w3bond market status   supply, prices and solvency`,
}

// marketName returns the selected market.
func marketName() (string, error) {
	return selected("market", marketFlag, cfg.DefaultMarket)
}

// ── market deploy ─────────────────────────────────────────────────────────────

var marketDeployCmd = &cobra.Command{
	Use:   "deploy <name>",
	Short: "Deploy a new bonding-curve market",
	Long: `Deploy a new market. The slope defaults to the configured slope_num and
slope_den (10^12 / 10^18: each whole unit of supply adds 10^12 wei to the
price).

Examples:
  w3bond market deploy bond --symbol BND
  w3bond market deploy steep --slope-num 1 --slope-den 1000000 --decimals 6`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		num, den, err := cfg.Slope()
		if err != nil {
			return err
		}
		if marketSlopeNum != "" {
			if num, err = uint256.FromDecimal(marketSlopeNum); err != nil {
				return fmt.Errorf("invalid --slope-num %q: %w", marketSlopeNum, err)
			}
		}
		if marketSlopeDen != "" {
			if den, err = uint256.FromDecimal(marketSlopeDen); err != nil {
				return fmt.Errorf("invalid --slope-den %q: %w", marketSlopeDen, err)
			}
		}
		curve, err := market.NewLinearCurve(num, den)
		if err != nil {
			return err
		}
		decimals := cfg.Decimals
		if cmd.Flags().Changed("decimals") {
			decimals = marketDecimals
		}
		meta := ledger.Metadata{
			Name:     marketTokenName,
			Symbol:   marketSymbol,
			Decimals: decimals,
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

		from, err := deployer(walletOrDefault(marketWallet), contract.KindBondedToken, name)
		if err != nil {
			return err
		}

		var addr common.Address
		err = updateChain(cmd.Context(), func(l *chain.Local) error {
			m, err := l.DeployMarket(from, name, chain.MarketParams{Token: meta, Curve: curve})
			if err != nil {
				return err
			}
			addr = m.Address()
			return nil
		})
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Market Deployed", [][2]string{
			{"Name", ui.Name(name)},
			{"Address", ui.Addr(addr.Hex())},
			{"Token", fmt.Sprintf("%s (%s), %d decimals", meta.Name, meta.Symbol, meta.Decimals)},
			{"Curve", curve.String()},
			{"Deployer", ui.Addr(from.Hex())},
		}))
		if cfg.DefaultMarket == "" {
			cfg.DefaultMarket = name
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Println(ui.Hint(fmt.Sprintf("%q is now the default market.", name)))
		}
		return nil
	},
}

// ── market list ───────────────────────────────────────────────────────────────

var marketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployed markets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := marketEntries(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println(ui.Info("No markets deployed yet."))
			fmt.Println(ui.Hint("Deploy one with: w3bond market deploy <name>"))
			return nil
		}
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 14},
			{Title: "Address", Width: 42},
			{Title: "Supply", Width: 14, Align: ui.AlignRight},
			{Title: "Buy price (ETH)", Width: 22, Align: ui.AlignRight},
		})
		for _, e := range entries {
			t.AddRow(ui.Row{e.Name, e.Address, e.Supply, e.BuyPrice})
		}
		fmt.Println(t.Render())
		return nil
	},
}

// ── market price ──────────────────────────────────────────────────────────────

var marketPriceCmd = &cobra.Command{
	Use:   "price",
	Short: "Show the current buy and sell price",
	Long: `Show the price of the next buy and the proceeds of the next sell.

With --quote N the next N buy prices are listed with their running total.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := marketName()
		if err != nil {
			return err
		}
		return viewChain(cmd.Context(), func(l *chain.Local) error {
			m, err := l.Market(name)
			if err != nil {
				return err
			}
			if marketQuote > 0 {
				prices, err := m.Quote(marketQuote)
				if err != nil {
					return err
				}
				t := ui.NewTable([]ui.Column{
					{Title: "#", Width: 5, Align: ui.AlignRight},
					{Title: "Price (ETH)", Width: 26, Align: ui.AlignRight},
					{Title: "Total (ETH)", Width: 26, Align: ui.AlignRight},
				})
				total := new(uint256.Int)
				for i, p := range prices {
					total.Add(total, p)
					t.AddRow(ui.Row{strconv.Itoa(i + 1), units.FormatUnits(p, 18), units.FormatUnits(total, 18)})
				}
				t.Footer = ui.Row{"", "wei", total.Dec()}
				fmt.Println(ui.StyleTitle.Render(fmt.Sprintf("Next %d buys · %s", marketQuote, name)))
				fmt.Println(t.Render())
				return nil
			}

			sell := "n/a (no supply)"
			if p, err := m.GetSellPrice(); err == nil {
				sell = ui.Amount(p, 18, "ETH")
			}
			buy, err := m.GetBuyPrice()
			if err != nil {
				return err
			}
			fmt.Println(ui.KeyValueBlock("Price · "+name, [][2]string{
				{"Buy", ui.Amount(buy, 18, "ETH")},
				{"Buy (wei)", buy.Dec()},
				{"Sell", sell},
			}))
			return nil
		})
	},
}

// ── market buy / sell ─────────────────────────────────────────────────────────

var marketBuyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy one whole unit at the current price",
	Long: `Buy one whole unit. The payment must equal the current buy price
exactly; by default the current price is paid. Pass --value to pay a
specific amount in ETH. A wrong amount fails with PaymentMismatch and
nothing is charged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := marketName()
		if err != nil {
			return err
		}
		var payment *uint256.Int
		if marketValue != "" {
			if payment, err = units.ParseUnits(marketValue, 18); err != nil {
				return fmt.Errorf("invalid --value: %w", err)
			}
		}

		var paid, next *uint256.Int
		var meta ledger.Metadata
		err = updateChain(cmd.Context(), func(l *chain.Local) error {
			m, err := l.Market(name)
			if err != nil {
				return err
			}
			buyer, err := caller(walletOrDefault(marketWallet), contract.KindBondedToken, m.Address(), "buy")
			if err != nil {
				return err
			}
			if paid, err = l.Buy(cmd.Context(), name, buyer, payment); err != nil {
				return err
			}
			meta = m.Token()
			next, err = m.GetBuyPrice()
			return err
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Bought 1 %s for %s", meta.Symbol, ui.Amount(paid, 18, "ETH"))))
		fmt.Println(ui.Meta("Next buy price: " + ui.Amount(next, 18, "ETH")))
		return nil
	},
}

var marketSellCmd = &cobra.Command{
	Use:   "sell",
	Short: "Sell one whole unit back to the market",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := marketName()
		if err != nil {
			return err
		}

		var got *uint256.Int
		var meta ledger.Metadata
		err = updateChain(cmd.Context(), func(l *chain.Local) error {
			m, err := l.Market(name)
			if err != nil {
				return err
			}
			seller, err := caller(walletOrDefault(marketWallet), contract.KindBondedToken, m.Address(), "sell")
			if err != nil {
				return err
			}
			if got, err = l.Sell(cmd.Context(), name, seller); err != nil {
				return err
			}
			meta = m.Token()
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Sold 1 %s for %s", meta.Symbol, ui.Amount(got, 18, "ETH"))))
		return nil
	},
}

// ── market status ─────────────────────────────────────────────────────────────

var marketStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show supply, escrow and solvency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := marketName()
		if err != nil {
			return err
		}
		return viewChain(cmd.Context(), func(l *chain.Local) error {
			m, err := l.Market(name)
			if err != nil {
				return err
			}
			meta := m.Token()
			liability, err := m.Liability()
			if err != nil {
				return err
			}
			solvent, err := m.Solvent()
			if err != nil {
				return err
			}
			solventStr := ui.StyleSuccess.Render("yes")
			if !solvent {
				solventStr = ui.StyleError.Render("NO")
			}
			sell := "n/a"
			if p, err := m.GetSellPrice(); err == nil {
				sell = ui.Amount(p, 18, "ETH")
			}
			buy, err := m.GetBuyPrice()
			if err != nil {
				return err
			}
			pairs := [][2]string{
				{"Address", ui.Addr(m.Address().Hex())},
				{"Token", fmt.Sprintf("%s (%s)", meta.Name, meta.Symbol)},
				{"Curve", m.Curve().String()},
				{"Supply", ui.Amount(m.TotalSupply(), meta.Decimals, meta.Symbol)},
				{"Holders", strconv.Itoa(len(m.Holders()))},
				{"Buy price", ui.Amount(buy, 18, "ETH")},
				{"Sell price", sell},
				{"Escrow", ui.Amount(m.Escrow(), 18, "ETH")},
				{"Buy-back cost", ui.Amount(liability, 18, "ETH")},
				{"Solvent", solventStr},
			}
			if w := walletOrDefault(marketWallet); w != "" {
				if a, err := resolveAccount(w); err == nil {
					pairs = append(pairs, [2]string{"Your balance", ui.Amount(m.BalanceOf(a), meta.Decimals, meta.Symbol)})
				}
			}
			fmt.Println(ui.KeyValueBlock("Market · "+name, pairs))
			return nil
		})
	},
}

// ── market watch ──────────────────────────────────────────────────────────────

var marketWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of every market",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p := ui.NewDashboard(marketInterval, func() ([]ui.MarketEntry, error) {
			return marketEntries(ctx)
		})
		_, err := p.Run()
		return err
	},
}

// marketEntries summarises every market for list and watch.
func marketEntries(ctx context.Context) ([]ui.MarketEntry, error) {
	var out []ui.MarketEntry
	err := viewChain(ctx, func(l *chain.Local) error {
		for _, name := range l.MarketNames() {
			m, err := l.Market(name)
			if err != nil {
				return err
			}
			meta := m.Token()
			sell := "-"
			if p, err := m.GetSellPrice(); err == nil {
				sell = units.FormatUnits(p, 18)
			}
			solvent, err := m.Solvent()
			if err != nil {
				return err
			}
			buy, err := m.GetBuyPrice()
			if err != nil {
				return err
			}
			out = append(out, ui.MarketEntry{
				Name:      name,
				Address:   m.Address().Hex(),
				Supply:    units.FormatUnits(m.TotalSupply(), meta.Decimals),
				BuyPrice:  units.FormatUnits(buy, 18),
				SellPrice: sell,
				Escrow:    units.FormatUnits(m.Escrow(), 18),
				Solvent:   solvent,
			})
		}
		return nil
	})
	return out, err
}

func init() {
	marketCmd.PersistentFlags().StringVarP(&marketFlag, "market", "m", "", "market name (default: config default_market)")
	marketCmd.PersistentFlags().StringVarP(&marketWallet, "wallet", "w", "", "signing wallet (default: config default_wallet)")

	marketDeployCmd.Flags().StringVar(&marketSlopeNum, "slope-num", "", "slope numerator (default: config slope_num)")
	marketDeployCmd.Flags().StringVar(&marketSlopeDen, "slope-den", "", "slope denominator (default: config slope_den)")
	marketDeployCmd.Flags().Uint8Var(&marketDecimals, "decimals", 18, "token decimals (default: config decimals)")
	marketDeployCmd.Flags().StringVar(&marketSymbol, "symbol", "", "token symbol (default: upper-cased name)")
	marketDeployCmd.Flags().StringVar(&marketTokenName, "token-name", "", "token name (default: market name)")

	marketPriceCmd.Flags().IntVar(&marketQuote, "quote", 0, "list the next N buy prices")
	marketBuyCmd.Flags().StringVar(&marketValue, "value", "", "payment in ETH (default: current price)")
	marketWatchCmd.Flags().DurationVar(&marketInterval, "interval", 2*time.Second, "refresh interval")

	marketCmd.AddCommand(
		marketDeployCmd,
		marketListCmd,
		marketPriceCmd,
		marketBuyCmd,
		marketSellCmd,
		marketStatusCmd,
		marketWatchCmd,
		newEventsCmd("market", func(l *chain.Local) (common.Address, ledger.Metadata, error) {
			name, err := marketName()
			if err != nil {
				return common.Address{}, ledger.Metadata{}, err
			}
			m, err := l.Market(name)
			if err != nil {
				return common.Address{}, ledger.Metadata{}, err
			}
			return m.Address(), m.Token(), nil
		}),
	)
	marketCmd.AddCommand(newERC20Cmds(erc20Target{
		kind:   contract.KindBondedToken,
		name:   marketName,
		wallet: func() string { return walletOrDefault(marketWallet) },
		lookup: func(l *chain.Local, name string) (erc20, error) {
			m, err := l.Market(name)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
	})...)
}
