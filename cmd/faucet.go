package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3bond/internal/chain"
	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/Mohsinsiddi/w3bond/internal/units"
	"github.com/spf13/cobra"
)

var faucetCmd = &cobra.Command{
	Use:   "faucet <wallet|address> <ether>",
	Short: "Credit native currency to an account",
	Long: `Credit the local chain's native currency to a wallet or address so it
can pay for market buys. A single credit is capped by faucet_limit.

Examples:
  w3bond faucet alice 10
  w3bond faucet 0xRecipient 0.25`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		amount, err := units.ParseUnits(args[1], 18)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		max, err := cfg.FaucetMax()
		if err != nil {
			return err
		}
		if amount.Gt(max) {
			return fmt.Errorf("faucet credits at most %s ETH at a time (config key faucet_limit)", cfg.FaucetLimit)
		}

		var total string
		err = updateChain(cmd.Context(), func(l *chain.Local) error {
			if err := l.Bank().Credit(to, amount); err != nil {
				return err
			}
			total = ui.Amount(l.Bank().Balance(to), 18, "ETH")
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Credited %s to %s", ui.Amount(amount, 18, "ETH"), ui.Addr(to.Hex()))))
		fmt.Println(ui.Meta("Balance: " + total))
		return nil
	},
}

var rejectOff bool

var rejectCmd = &cobra.Command{
	Use:   "reject <wallet|address>",
	Short: "Make an account refuse incoming native payments",
	Long: `Mark an account as rejecting native currency, the way a contract without
a payable fallback would. Sells paying out to it then fail with
TransferFailed and change nothing.

Examples:
  w3bond reject alice         # alice refuses payouts
  w3bond reject alice --off   # accept them again`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		err = updateChain(cmd.Context(), func(l *chain.Local) error {
			l.Bank().SetRejecting(who, !rejectOff)
			return nil
		})
		if err != nil {
			return err
		}
		if rejectOff {
			fmt.Println(ui.Success(ui.Addr(who.Hex()) + " accepts native payments again."))
		} else {
			fmt.Println(ui.Warn(ui.Addr(who.Hex()) + " now rejects native payments."))
		}
		return nil
	},
}

func init() {
	rejectCmd.Flags().BoolVar(&rejectOff, "off", false, "accept payments again")
}
