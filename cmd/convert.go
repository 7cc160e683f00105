package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/Mohsinsiddi/w3bond/internal/units"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var convertDecimals int

var convertCmd = &cobra.Command{
	Use:   "convert <amount> [unit]",
	Short: "Convert between ETH, Gwei, Wei, token units and hex/decimal",
	Long: `Convert between native denominations, token units and hex/decimal.

Units: eth, gwei, wei, hex, decimal
If no unit is given and the value starts with 0x, it's treated as hex.
With --decimals N the amount is a token amount; the output shows its raw
integer value.

Examples:
  w3bond convert 1.5 eth             # gwei + wei
  w3bond convert 50 gwei             # eth + wei
  w3bond convert 1000000000 wei      # eth + gwei
  w3bond convert 2.5 --decimals 6    # 2500000 raw units
  w3bond convert 0xff                # 255 (decimal)
  w3bond convert 255 hex             # 0xff`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount := args[0]
		unit := ""
		if len(args) > 1 {
			unit = strings.ToLower(args[1])
		}

		title, pairs, err := convertAmount(amount, unit, convertDecimals)
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock(title, pairs))
		return nil
	},
}

// convertAmount returns the conversion table for amount in unit. A
// non-negative decimals converts a token amount instead.
func convertAmount(amount, unit string, decimals int) (string, [][2]string, error) {
	if decimals >= 0 {
		if decimals > 77 {
			return "", nil, fmt.Errorf("--decimals must be 0-77")
		}
		raw, err := units.ParseUnits(amount, uint8(decimals))
		if err != nil {
			return "", nil, err
		}
		return "Token Units", [][2]string{
			{"Input", ui.Val(amount)},
			{"Decimals", ui.Val(fmt.Sprint(decimals))},
			{"Raw", ui.Val(raw.Dec())},
			{"Hex", ui.Val(raw.Hex())},
		}, nil
	}

	// Auto-detect hex input.
	if unit == "" && strings.HasPrefix(strings.ToLower(amount), "0x") {
		unit = "hex_input"
	}

	switch unit {
	case "hex", "decimal", "dec":
		n, err := uint256.FromDecimal(amount)
		if err != nil {
			return "", nil, fmt.Errorf("invalid decimal value: %s", amount)
		}
		return "Decimal → Hex", [][2]string{
			{"Decimal", ui.Val(amount)},
			{"Hex", ui.Val(n.Hex())},
		}, nil
	case "hex_input":
		clean := strings.TrimPrefix(strings.TrimPrefix(amount, "0x"), "0X")
		b, ok := new(big.Int).SetString(clean, 16)
		if !ok {
			return "", nil, fmt.Errorf("invalid hex value: %s", amount)
		}
		n, overflow := uint256.FromBig(b)
		if overflow {
			return "", nil, fmt.Errorf("%w: %s", units.ErrOverflow, amount)
		}
		return "Hex → Decimal", [][2]string{
			{"Hex", ui.Val(amount)},
			{"Decimal", ui.Val(n.Dec())},
		}, nil
	case "":
		// Default: try as wei.
		unit = "wei"
	}

	d, err := units.Decimals(unit)
	if err != nil {
		return "", nil, err
	}
	wei, err := units.ParseUnits(amount, d)
	if err != nil {
		return "", nil, err
	}
	pairs := [][2]string{{"Input", ui.Val(amount + " " + unit)}}
	for _, u := range []string{"eth", "gwei", "wei"} {
		if units.Denominations[u] == d {
			continue
		}
		pairs = append(pairs, [2]string{strings.ToUpper(u[:1]) + u[1:], ui.Val(units.FormatUnits(wei, units.Denominations[u]) + " " + u)})
	}
	pairs = append(pairs, [2]string{"Hex", ui.Val(wei.Hex())})
	return "Unit Conversion", pairs, nil
}

func init() {
	convertCmd.Flags().IntVar(&convertDecimals, "decimals", -1, "treat the amount as a token amount with this many decimals")
}
