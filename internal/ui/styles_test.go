package ui

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestFormattersKeepMessage(t *testing.T) {
	cases := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"Success", Success, "✓"},
		{"Warn", Warn, "⚠"},
		{"Err", Err, "✗"},
		{"Info", Info, "ℹ"},
		{"Hint", Hint, "💡"},
		{"Addr", Addr, ""},
		{"Val", Val, ""},
		{"Meta", Meta, ""},
		{"Name", Name, ""},
		{"DangerBox", DangerBox, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.fn("sold 1 BND")
			assert.Contains(t, out, "sold 1 BND")
			assert.Contains(t, out, tc.prefix)
		})
	}
	assert.NotPanics(t, func() { DangerBox("") })
}

func TestTruncateAddr(t *testing.T) {
	for _, c := range [][2]string{
		{"", ""},
		{"0x1234", "0x1234"},
		{"0x12345678", "0x12345678"},
		{"0x1234567890abcdef1234567890abcdef12345678", "0x1234…5678"},
	} {
		assert.Equal(t, c[1], TruncateAddr(c[0]), c[0])
	}
}

func TestAmount(t *testing.T) {
	v := uint256.MustFromDecimal("1500000000000000000")
	assert.Equal(t, "1.5 ETH", Amount(v, 18, "ETH"))
	assert.Equal(t, "1.5", Amount(v, 18, ""))
	assert.Equal(t, "0 BND", Amount(new(uint256.Int), 18, "BND"))
	assert.Equal(t, "1500 USD", Amount(uint256.NewInt(1_500_000_000), 6, "USD"))
}
