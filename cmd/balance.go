package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3bond/internal/chain"
	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/Mohsinsiddi/w3bond/internal/units"
	"github.com/spf13/cobra"
)

var (
	balanceWallet string
	balanceAll    bool
)

var balanceCmd = &cobra.Command{
	Use:   "balance [wallet-name-or-address]",
	Short: "Check native and token balances",
	Long: `Show the native balance of a wallet or address, followed by its balance
in every deployed market and token.

Examples:
  w3bond balance                # default wallet
  w3bond balance alice
  w3bond balance 0xABC... --all # include zero balances`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Allow positional arg as shorthand for --wallet.
		if len(args) == 1 && balanceWallet == "" {
			balanceWallet = args[0]
		}
		name := walletOrDefault(balanceWallet)
		if name == "" {
			return fmt.Errorf("no wallet given: pass one or run `w3bond wallet use <name>`")
		}
		who, err := resolveAccount(name)
		if err != nil {
			return err
		}

		return viewChain(cmd.Context(), func(l *chain.Local) error {
			native := l.Bank().Balance(who)
			fmt.Println(ui.KeyValueBlock("Balance", [][2]string{
				{"Account", ui.Addr(who.Hex())},
				{"Native", ui.Val(ui.Amount(native, 18, "ETH"))},
			}))

			tbl := ui.NewTable([]ui.Column{
				{Title: "Contract", Width: 14},
				{Title: "Kind", Width: 8},
				{Title: "Symbol", Width: 8},
				{Title: "Balance", Width: 28, Align: ui.AlignRight},
			})
			rows := 0
			for _, n := range l.MarketNames() {
				m, err := l.Market(n)
				if err != nil {
					return err
				}
				bal := m.BalanceOf(who)
				if bal.IsZero() && !balanceAll {
					continue
				}
				meta := m.Token()
				tbl.AddRow(ui.Row{n, "market", meta.Symbol, units.FormatUnits(bal, meta.Decimals)})
				rows++
			}
			for _, n := range l.TokenNames() {
				t, err := l.Token(n)
				if err != nil {
					return err
				}
				bal := t.BalanceOf(who)
				if bal.IsZero() && !balanceAll {
					continue
				}
				meta := t.Token()
				tbl.AddRow(ui.Row{n, "token", meta.Symbol, units.FormatUnits(bal, meta.Decimals)})
				rows++
			}
			if rows == 0 {
				fmt.Println(ui.Meta("No token balances."))
				return nil
			}
			fmt.Println(tbl.Render())
			return nil
		})
	},
}

func init() {
	balanceCmd.Flags().StringVarP(&balanceWallet, "wallet", "w", "", "wallet name or address")
	balanceCmd.Flags().BoolVar(&balanceAll, "all", false, "include zero balances")
}
