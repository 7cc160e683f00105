package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3bond/internal/chain"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/Mohsinsiddi/w3bond/internal/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

// erc20 is the token surface shared by markets and mintable tokens.
type erc20 interface {
	Address() common.Address
	Token() ledger.Metadata
	BalanceOf(a common.Address) *uint256.Int
	Allowance(owner, spender common.Address) *uint256.Int
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	Approve(ctx context.Context, owner, spender common.Address, amount *uint256.Int) error
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount *uint256.Int) error
}

// erc20Target tells the shared commands which contract to act on.
type erc20Target struct {
	kind   string
	name   func() (string, error)
	wallet func() string
	lookup func(l *chain.Local, name string) (erc20, error)
}

// newERC20Cmds returns transfer, approve, transfer-from and allowance.
// Amounts are given in whole tokens ("1.5").
func newERC20Cmds(t erc20Target) []*cobra.Command {
	transfer := &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Transfer tokens to a wallet or address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := resolveAccount(args[0])
			if err != nil {
				return err
			}
			return t.write(cmd.Context(), args[1], func(c erc20, amt *uint256.Int) (string, error) {
				from, err := caller(t.wallet(), t.kind, c.Address(), "transfer", to, amt)
				if err != nil {
					return "", err
				}
				if err := c.Transfer(cmd.Context(), from, to, amt); err != nil {
					return "", err
				}
				return fmt.Sprintf("Transferred %s to %s", ui.Amount(amt, c.Token().Decimals, c.Token().Symbol), ui.Addr(to.Hex())), nil
			})
		},
	}

	approve := &cobra.Command{
		Use:   "approve <spender> <amount>",
		Short: "Allow a spender to move your tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spender, err := resolveAccount(args[0])
			if err != nil {
				return err
			}
			return t.write(cmd.Context(), args[1], func(c erc20, amt *uint256.Int) (string, error) {
				owner, err := caller(t.wallet(), t.kind, c.Address(), "approve", spender, amt)
				if err != nil {
					return "", err
				}
				if err := c.Approve(cmd.Context(), owner, spender, amt); err != nil {
					return "", err
				}
				return fmt.Sprintf("Approved %s to spend %s", ui.Addr(spender.Hex()), ui.Amount(amt, c.Token().Decimals, c.Token().Symbol)), nil
			})
		},
	}

	transferFrom := &cobra.Command{
		Use:   "transfer-from <from> <to> <amount>",
		Short: "Move tokens out of an account that approved you",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := resolveAccount(args[0])
			if err != nil {
				return err
			}
			to, err := resolveAccount(args[1])
			if err != nil {
				return err
			}
			return t.write(cmd.Context(), args[2], func(c erc20, amt *uint256.Int) (string, error) {
				spender, err := caller(t.wallet(), t.kind, c.Address(), "transferFrom", from, to, amt)
				if err != nil {
					return "", err
				}
				if err := c.TransferFrom(cmd.Context(), spender, from, to, amt); err != nil {
					return "", err
				}
				return fmt.Sprintf("Moved %s from %s to %s", ui.Amount(amt, c.Token().Decimals, c.Token().Symbol),
					ui.Addr(from.Hex()), ui.Addr(to.Hex())), nil
			})
		},
	}

	allowance := &cobra.Command{
		Use:   "allowance <owner> <spender>",
		Short: "Show how much a spender may still move",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := resolveAccount(args[0])
			if err != nil {
				return err
			}
			spender, err := resolveAccount(args[1])
			if err != nil {
				return err
			}
			name, err := t.name()
			if err != nil {
				return err
			}
			return viewChain(cmd.Context(), func(l *chain.Local) error {
				c, err := t.lookup(l, name)
				if err != nil {
					return err
				}
				meta := c.Token()
				fmt.Println(ui.KeyValueBlock("Allowance · "+name, [][2]string{
					{"Owner", ui.Addr(owner.Hex())},
					{"Spender", ui.Addr(spender.Hex())},
					{"Allowance", ui.Amount(c.Allowance(owner, spender), meta.Decimals, meta.Symbol)},
				}))
				return nil
			})
		},
	}

	return []*cobra.Command{transfer, approve, transferFrom, allowance}
}

// write parses amount in the contract's decimals, runs fn in a store
// transaction and prints its message once saved.
func (t erc20Target) write(ctx context.Context, amount string, fn func(c erc20, amt *uint256.Int) (string, error)) error {
	name, err := t.name()
	if err != nil {
		return err
	}
	var msg string
	err = updateChain(ctx, func(l *chain.Local) error {
		c, err := t.lookup(l, name)
		if err != nil {
			return err
		}
		amt, err := units.ParseUnits(amount, c.Token().Decimals)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		msg, err = fn(c, amt)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Println(ui.Success(msg))
	return nil
}
