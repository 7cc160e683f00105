package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3bond/internal/contract"
	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"
)

var abiJSON bool

var abiCmd = &cobra.Command{
	Use:   "abi [kind]",
	Short: "Show the ABI of a built-in contract kind",
	Long: `List the built-in contract kinds, or show the functions and events of one.
With --json the ABI is printed in the standard Solidity JSON format, ready
for other tools.

Examples:
  w3bond abi                       # list kinds
  w3bond abi bondedtoken           # functions, selectors and events
  w3bond abi mintabletoken --json  # raw ABI JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			tbl := ui.NewTable([]ui.Column{
				{Title: "Kind", Width: 16},
				{Title: "Name", Width: 22},
				{Title: "ERC-20", Width: 6},
				{Title: "Description", Width: 48},
			})
			for _, b := range contract.AllBuiltins() {
				erc20 := "no"
				if contract.Implements(b.ID, contract.KindERC20) {
					erc20 = "yes"
				}
				tbl.AddRow(ui.Row{b.ID, b.Name, erc20, b.Description})
			}
			fmt.Println(tbl.Render())
			return nil
		}

		b, ok := contract.GetBuiltin(args[0])
		if !ok {
			return fmt.Errorf("%w: kind %q (run `w3bond abi` to list kinds)", contract.ErrUnknownEntry, args[0])
		}
		if abiJSON {
			data, err := b.ABI.JSON()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		reads, writes := b.ABI.Functions()
		tbl := ui.NewTable([]ui.Column{
			{Title: "Type", Width: 8},
			{Title: "Signature", Width: 44},
			{Title: "Selector / Topic", Width: 20},
		})
		for _, e := range reads {
			tbl.AddRow(ui.Row{"read", e.Signature(), e.Selector()})
		}
		for _, e := range writes {
			tbl.AddRow(ui.Row{"write", e.Signature(), e.Selector()})
		}
		for _, e := range b.ABI.Events() {
			tbl.AddRow(ui.Row{"event", e.Signature(), ui.TruncateAddr(e.Topic().Hex())})
		}
		fmt.Println(ui.StyleTitle.Render(b.Name))
		fmt.Println(tbl.Render())
		return nil
	},
}

var abiSelectorCmd = &cobra.Command{
	Use:   "selector <signature-or-selector>",
	Short: "Compute a 4-byte selector or look one up in the built-in ABIs",
	Long: `Compute a 4-byte function selector from a signature, or look up a known
selector or event topic in the built-in ABIs.

Examples:
  w3bond abi selector "buy()"                          # 0xa6f2ae3a
  w3bond abi selector "transfer(address to, uint256)"  # 0xa9059cbb
  w3bond abi selector 0xa9059cbb                       # transfer`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
			matches := lookupSelector(input)
			if len(matches) == 0 {
				fmt.Println(ui.Warn(fmt.Sprintf("%s is not in any built-in ABI.", input)))
				return nil
			}
			pairs := [][2]string{{"Selector", input}}
			for _, m := range matches {
				pairs = append(pairs, [2]string{"Match", ui.Val(m)})
			}
			fmt.Println(ui.KeyValueBlock("Selector Lookup", pairs))
			return nil
		}

		sig := normalizeSignature(input)
		hash := keccak([]byte(sig))
		fmt.Println(ui.KeyValueBlock("Function Selector", [][2]string{
			{"Signature", sig},
			{"Selector", ui.Val("0x" + hex.EncodeToString(hash[:4]))},
			{"Event topic", computeEventTopic(sig)},
		}))
		return nil
	},
}

var abiKeccakCmd = &cobra.Command{
	Use:   "keccak <input>",
	Short: "Compute the Keccak-256 hash of text or hex input",
	Long: `Compute the Keccak-256 hash of the given input.

If the input starts with 0x, it's treated as raw hex bytes.
Otherwise, it's treated as a UTF-8 string.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		data, inputType, err := keccakInput(input)
		if err != nil {
			return err
		}
		hash := keccak(data)
		fmt.Println(ui.KeyValueBlock("Keccak-256 Hash", [][2]string{
			{"Input", input},
			{"Type", inputType},
			{"Keccak-256", ui.Val("0x" + hex.EncodeToString(hash))},
			{"Selector (4 bytes)", "0x" + hex.EncodeToString(hash[:4])},
		}))
		return nil
	},
}

func keccak(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// keccakInput decodes 0x-prefixed input as hex and anything else as text.
func keccakInput(input string) ([]byte, string, error) {
	if !strings.HasPrefix(input, "0x") && !strings.HasPrefix(input, "0X") {
		return []byte(input), "text", nil
	}
	raw, err := hex.DecodeString(input[2:])
	if err != nil {
		return nil, "", fmt.Errorf("invalid hex input: %w", err)
	}
	return raw, "hex", nil
}

// computeEventTopic returns topic0 for an event signature.
func computeEventTopic(sig string) string {
	return "0x" + hex.EncodeToString(keccak([]byte(sig)))
}

// lookupSelector finds functions with the given selector, or events with the
// given topic, across every built-in kind.
func lookupSelector(sel string) []string {
	sel = strings.ToLower(sel)
	var out []string
	for _, b := range contract.AllBuiltins() {
		for _, e := range b.ABI {
			switch {
			case e.Type == "function" && e.Selector() == sel:
				out = append(out, b.ID+"."+e.Signature())
			case e.Type == "event" && strings.ToLower(e.Topic().Hex()) == sel:
				out = append(out, b.ID+"."+e.Signature()+" (event)")
			}
		}
	}
	return out
}

// normalizeSignature removes parameter names, keeping only types.
// "transfer(address to, uint256 amount)" → "transfer(address,uint256)"
func normalizeSignature(sig string) string {
	name, params, ok := strings.Cut(sig, "(")
	if !ok {
		return sig
	}
	var types []string
	for _, p := range strings.Split(strings.TrimSuffix(params, ")"), ",") {
		// "uint256 amount" keeps only the type.
		if f := strings.Fields(p); len(f) > 0 {
			types = append(types, f[0])
		}
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

func init() {
	abiCmd.Flags().BoolVar(&abiJSON, "json", false, "print the raw ABI JSON")
	abiCmd.AddCommand(abiSelectorCmd, abiKeccakCmd)
}
