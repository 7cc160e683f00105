package contract

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3bond/internal/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

var (
	ErrUnknownEntry = errors.New("not found in ABI")
	ErrArgMismatch  = errors.New("argument mismatch")
)

// EncodeCall builds calldata: 4-byte selector + one 32-byte word per
// argument. Supported argument types are common.Address, *uint256.Int,
// uint64 and bool.
func EncodeCall(fn ABIEntry, args ...any) ([]byte, error) {
	if len(args) != len(fn.Inputs) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArgMismatch, fn.Name, len(fn.Inputs), len(args))
	}
	sel, err := hex.DecodeString(strings.TrimPrefix(fn.Selector(), "0x"))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 4+32*len(args))
	out = append(out, sel...)
	for i, param := range fn.Inputs {
		word, err := encodeParam(param.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("encoding param %s: %w", param.Name, err)
		}
		out = append(out, word[:]...)
	}
	return out, nil
}

// encodeParam encodes a single static ABI value as a 32-byte word.
func encodeParam(typ string, v any) ([32]byte, error) {
	var word [32]byte
	switch {
	case typ == "address":
		a, ok := v.(common.Address)
		if !ok {
			return word, fmt.Errorf("%w: want address, got %T", ErrArgMismatch, v)
		}
		copy(word[12:], a.Bytes())

	case strings.HasPrefix(typ, "uint"):
		switch n := v.(type) {
		case *uint256.Int:
			word = n.Bytes32()
		case uint64:
			word = uint256.NewInt(n).Bytes32()
		default:
			return word, fmt.Errorf("%w: want integer, got %T", ErrArgMismatch, v)
		}

	case typ == "bool":
		b, ok := v.(bool)
		if !ok {
			return word, fmt.Errorf("%w: want bool, got %T", ErrArgMismatch, v)
		}
		if b {
			word[31] = 1
		}

	default:
		return word, fmt.Errorf("%w: unsupported type %s", ErrArgMismatch, typ)
	}
	return word, nil
}

// EncodeLog turns an event into the log an EVM would emit: topic0 is the
// event signature hash, indexed addresses follow as topics and the values
// are packed into data.
func EncodeLog(abi ABI, ev event.Event) (*types.Log, error) {
	entry, ok := abi.Event(ev.Name)
	if !ok {
		return nil, fmt.Errorf("event %s %w", ev.Name, ErrUnknownEntry)
	}
	var indexed, plain int
	for _, p := range entry.Inputs {
		if p.Indexed {
			indexed++
		} else {
			plain++
		}
	}
	if indexed != len(ev.Indexed) || plain != len(ev.Values) {
		return nil, fmt.Errorf("%w: %s wants %d indexed and %d values, got %d and %d",
			ErrArgMismatch, entry.Signature(), indexed, plain, len(ev.Indexed), len(ev.Values))
	}

	log := &types.Log{
		Address: ev.Contract,
		Topics:  []common.Hash{entry.Topic()},
		Data:    make([]byte, 0, 32*plain),
	}
	for _, a := range ev.Indexed {
		log.Topics = append(log.Topics, common.BytesToHash(a.Bytes()))
	}
	for _, v := range ev.Values {
		w := v.Bytes32()
		log.Data = append(log.Data, w[:]...)
	}
	return log, nil
}

// DecodeLog reverses EncodeLog for one of the events in abi.
func DecodeLog(abi ABI, log *types.Log) (event.Event, error) {
	if len(log.Topics) == 0 {
		return event.Event{}, fmt.Errorf("%w: anonymous log", ErrUnknownEntry)
	}
	for _, entry := range abi.Events() {
		if entry.Topic() != log.Topics[0] {
			continue
		}
		ev := event.Event{Contract: log.Address, Name: entry.Name}
		for _, t := range log.Topics[1:] {
			ev.Indexed = append(ev.Indexed, common.BytesToAddress(t.Bytes()))
		}
		if len(log.Data)%32 != 0 {
			return event.Event{}, fmt.Errorf("%w: data length %d", ErrArgMismatch, len(log.Data))
		}
		for off := 0; off < len(log.Data); off += 32 {
			ev.Values = append(ev.Values, new(uint256.Int).SetBytes32(log.Data[off:off+32]))
		}
		return ev, nil
	}
	return event.Event{}, fmt.Errorf("topic %s %w", log.Topics[0].Hex(), ErrUnknownEntry)
}
