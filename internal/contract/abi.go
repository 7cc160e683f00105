package contract

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// ABIEntry is one ABI entry (function, event, etc.).
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// Signature is the canonical form, e.g. "transfer(address,uint256)".
func (e ABIEntry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.Type
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the 4-byte function selector as 0x-prefixed hex.
func (e ABIEntry) Selector() string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(e.Signature()))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// Topic returns topic0 of an event: keccak256 of its signature.
func (e ABIEntry) Topic() common.Hash {
	return crypto.Keccak256Hash([]byte(e.Signature()))
}

// ABI is a contract interface.
type ABI []ABIEntry

// Function finds a function by name.
func (a ABI) Function(name string) (ABIEntry, bool) {
	return a.find("function", name)
}

// Event finds an event by name.
func (a ABI) Event(name string) (ABIEntry, bool) {
	return a.find("event", name)
}

// Functions returns the functions, reads first.
func (a ABI) Functions() (reads, writes []ABIEntry) {
	for _, e := range a {
		switch {
		case e.IsReadFunction():
			reads = append(reads, e)
		case e.IsWriteFunction():
			writes = append(writes, e)
		}
	}
	return reads, writes
}

// Events returns every event entry.
func (a ABI) Events() []ABIEntry {
	var out []ABIEntry
	for _, e := range a {
		if e.Type == "event" {
			out = append(out, e)
		}
	}
	return out
}

// JSON renders the ABI the way solc does.
func (a ABI) JSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

func (a ABI) find(typ, name string) (ABIEntry, bool) {
	for _, e := range a {
		if e.Type == typ && e.Name == name {
			return e, true
		}
	}
	return ABIEntry{}, false
}
