package cmd

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSignature(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"transfer(address,uint256)", "transfer(address,uint256)"},
		{"transfer(address to, uint256 amount)", "transfer(address,uint256)"},
		{"balanceOf(address account)", "balanceOf(address)"},
		{"transferFrom(address from, address to, uint256 amount)", "transferFrom(address,address,uint256)"},
		{"approve(  address  spender ,  uint256  amount  )", "approve(address,uint256)"},
		{"sell(uint256 amount, uint256 minProceeds)", "sell(uint256,uint256)"},
		{"name()", "name()"},
		{"buy( )", "buy()"},
		{"noop", "noop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeSignature(tt.in), tt.in)
	}
}

func TestComputeEventTopic(t *testing.T) {
	topics := [][2]string{
		{"Transfer(address,address,uint256)", "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"},
		{"Approval(address,address,uint256)", "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"},
	}
	for _, tc := range topics {
		assert.Equal(t, tc[1], computeEventTopic(tc[0]), tc[0])
	}
}

// ---------------------------------------------------------------------------
// keccak
// ---------------------------------------------------------------------------

func TestKeccak_KnownSelectors(t *testing.T) {
	cases := map[string]string{
		"transfer(address,uint256)": "a9059cbb",
		"approve(address,uint256)":  "095ea7b3",
		"balanceOf(address)":        "70a08231",
	}
	for sig, want := range cases {
		assert.Equal(t, want, hex.EncodeToString(keccak([]byte(sig))[:4]), sig)
	}
}

func TestKeccak_EmptyString(t *testing.T) {
	// Known keccak of empty string.
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hex.EncodeToString(keccak(nil)))
}

func TestKeccakInput(t *testing.T) {
	data, typ, err := keccakInput("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, "hex", typ)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)

	data, typ, err = keccakInput("hello")
	require.NoError(t, err)
	assert.Equal(t, "text", typ)
	assert.Equal(t, []byte("hello"), data)

	_, _, err = keccakInput("0xzz")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// lookupSelector
// ---------------------------------------------------------------------------

func TestLookupSelector_Transfer(t *testing.T) {
	got := lookupSelector("0xA9059CBB")
	assert.Contains(t, got, "bondedtoken.transfer(address,uint256)")
	assert.Contains(t, got, "mintabletoken.transfer(address,uint256)")
}

func TestLookupSelector_EventTopic(t *testing.T) {
	got := lookupSelector(computeEventTopic("Transfer(address,address,uint256)"))
	assert.Contains(t, got, "bondedtoken.Transfer(address,address,uint256) (event)")
}

func TestLookupSelector_Unknown(t *testing.T) {
	assert.Empty(t, lookupSelector("0x00000000"))
}
