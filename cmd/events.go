package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3bond/internal/chain"
	"github.com/Mohsinsiddi/w3bond/internal/contract"
	"github.com/Mohsinsiddi/w3bond/internal/ledger"
	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

// eventTarget resolves the contract whose events are shown.
type eventTarget func(l *chain.Local) (addr common.Address, meta ledger.Metadata, err error)

// newEventsCmd builds an `events` sub-command for markets or tokens.
func newEventsCmd(noun string, target eventTarget) *cobra.Command {
	var (
		raw   bool
		name  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: fmt.Sprintf("Show the event log of a %s", noun),
		Long: fmt.Sprintf(`Show the events emitted by a %s, oldest first.

Events are decoded against the builtin ABI. With --raw the EVM log form
is printed instead: topic0 is the event signature hash, indexed
addresses follow as topics and amounts are ABI-encoded in data.`, noun),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viewChain(cmd.Context(), func(l *chain.Local) error {
				addr, meta, err := target(l)
				if err != nil {
					return err
				}
				var names []string
				if name != "" {
					names = []string{name}
				}
				logs, err := l.GetLogs(addr, names...)
				if err != nil {
					return err
				}
				if len(logs) == 0 {
					fmt.Println(ui.Info(fmt.Sprintf("No events for %s", ui.TruncateAddr(addr.Hex()))))
					return nil
				}
				if count > 0 && len(logs) > count {
					logs = logs[len(logs)-count:]
				}
				kind, _ := l.Kind(addr)
				abi := contract.GetBuiltinABI(kind)
				for _, lg := range logs {
					var pairs [][2]string
					if raw {
						pairs = rawLogPairs(lg)
					} else {
						pairs, err = decodedLogPairs(abi, lg, meta)
						if err != nil {
							return err
						}
					}
					fmt.Println(ui.KeyValueBlock(fmt.Sprintf("Event #%d", lg.Index), pairs))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print topics and data instead of decoded values")
	cmd.Flags().StringVar(&name, "event", "", "only show events with this name")
	cmd.Flags().IntVar(&count, "count", 0, "show only the last N events (0 = all)")
	return cmd
}

func rawLogPairs(lg *types.Log) [][2]string {
	pairs := [][2]string{{"Tx", ui.Addr(lg.TxHash.Hex())}}
	for j, topic := range lg.Topics {
		pairs = append(pairs, [2]string{fmt.Sprintf("Topic[%d]", j), topic.Hex()})
	}
	data := "0x" + common.Bytes2Hex(lg.Data)
	if len(data) > 74 {
		data = data[:74] + "..."
	}
	return append(pairs, [2]string{"Data", data})
}

// decodedLogPairs lists the event name and its arguments in declaration
// order. Amount arguments are shown in whole units when their name says
// so.
func decodedLogPairs(abi contract.ABI, lg *types.Log, meta ledger.Metadata) ([][2]string, error) {
	ev, err := contract.DecodeLog(abi, lg)
	if err != nil {
		return nil, err
	}
	entry, _ := abi.Event(ev.Name)
	pairs := [][2]string{{"Event", ui.Val(ev.Name)}}
	var ai, vi int
	for _, in := range entry.Inputs {
		switch {
		case in.Indexed && ai < len(ev.Indexed):
			pairs = append(pairs, [2]string{in.Name, ui.Addr(ev.Indexed[ai].Hex())})
			ai++
		case vi < len(ev.Values):
			pairs = append(pairs, [2]string{in.Name, formatEventValue(in.Name, ev.Values[vi], meta)})
			vi++
		}
	}
	return pairs, nil
}

func formatEventValue(param string, v *uint256.Int, meta ledger.Metadata) string {
	lower := strings.ToLower(param)
	switch {
	case strings.HasPrefix(lower, "eth"):
		return ui.Amount(v, 18, "ETH")
	case lower == "amount" || lower == "value":
		return ui.Amount(v, meta.Decimals, meta.Symbol)
	}
	return v.Dec()
}
