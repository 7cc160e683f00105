package contract

import (
	"fmt"
	"sort"
)

// BuiltinKind describes a contract type whose ABI is embedded in the binary.
// Each kind registers itself via init() in its own <name>_abi.go file.
type BuiltinKind struct {
	ID          string // machine key, e.g. "bondedtoken", "erc20"
	Name        string // human label
	Description string // one-line summary shown by `abi`
	ABI         ABI
}

// Builtin IDs.
const (
	KindBondedToken   = "bondedtoken"
	KindMintableToken = "mintabletoken"
	KindERC20         = "erc20"
)

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds a built-in ABI to the registry. It panics if the ID
// is empty or already taken, so it belongs in init().
func RegisterBuiltin(b BuiltinKind) {
	if b.ID == "" {
		panic("contract: RegisterBuiltin with empty ID")
	}
	if _, dup := builtinRegistry[b.ID]; dup {
		panic(fmt.Sprintf("contract: RegisterBuiltin called twice for %q", b.ID))
	}
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// GetBuiltinABI returns the ABI entries for a built-in ID, or nil if unknown.
func GetBuiltinABI(id string) ABI {
	return builtinRegistry[id].ABI
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Implements reports whether kind has every function and event of base,
// matched by type and canonical signature. Unknown IDs implement nothing.
func Implements(kind, base string) bool {
	k, ok := builtinRegistry[kind]
	if !ok {
		return false
	}
	b, ok := builtinRegistry[base]
	if !ok {
		return false
	}
	have := make(map[string]bool, len(k.ABI))
	for _, e := range k.ABI {
		have[e.Type+" "+e.Signature()] = true
	}
	for _, e := range b.ABI {
		if !have[e.Type+" "+e.Signature()] {
			return false
		}
	}
	return true
}
