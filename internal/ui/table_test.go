package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inOrder asserts that each of parts appears in s after the previous one.
func inOrder(t *testing.T, s string, parts ...string) {
	t.Helper()
	last := -1
	for _, p := range parts {
		idx := strings.Index(s, p)
		require.Greater(t, idx, -1, "missing %q", p)
		assert.Greater(t, idx, last, "%q out of order", p)
		last = idx
	}
}

func TestKeyValueBlock(t *testing.T) {
	out := KeyValueBlock("Status · bond", [][2]string{
		{"Supply", "2 BND"},
		{"Escrow", "0.000001 ETH"},
		{"Holder", "yes"},
	})
	inOrder(t, out, "Status · bond", "Supply", "2 BND", "Escrow", "0.000001 ETH", "Holder", "yes")
	// lipgloss RoundedBorder corners.
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "╰")

	assert.Contains(t, KeyValueBlock("Empty", nil), "Empty")
}

func TestTableLayout(t *testing.T) {
	tbl := NewTable([]Column{
		{Title: "Name", Width: 10},
		{Title: "Symbol", Width: 6},
		{Title: "Supply", Width: 12, Align: AlignRight},
	})
	assert.Equal(t, -1, tbl.SelIdx)
	assert.Empty(t, tbl.Rows)

	tbl.AddRow(Row{"bond", "BND", "2"})
	tbl.AddRow(Row{"steep"})
	tbl.SelIdx = 1
	out := tbl.Render()

	inOrder(t, out, "Name", "Symbol", "Supply", "----------", "bond", "BND", "2", "steep")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	for _, l := range lines {
		assert.Equal(t, 10+1+6+1+12, len([]rune(l)), "every line spans all columns: %q", l)
	}
}

func TestTableHeaderOnly(t *testing.T) {
	out := NewTable([]Column{{Title: "Contract", Width: 8}}).Render()
	assert.Equal(t, "Contract\n--------\n", out)
}

func TestTableRightAlignedAmounts(t *testing.T) {
	tbl := NewTable([]Column{
		{Title: "Name", Width: 6},
		{Title: "Price", Width: 10, Align: AlignRight},
	})
	tbl.AddRow(Row{"bond", "1.5"})
	tbl.AddRow(Row{"steep", "12.25"})

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasSuffix(lines[2], "       1.5"), lines[2])
	assert.True(t, strings.HasSuffix(lines[3], "     12.25"), lines[3])
}

func TestTableTruncatesLongCells(t *testing.T) {
	tbl := NewTable([]Column{{Title: "Address", Width: 8}})
	tbl.AddRow(Row{"0x1234567890abcdef"})
	result := tbl.Render()
	assert.Contains(t, result, "0x12345…")
	assert.NotContains(t, result, "0x123456789")
}

func TestTableFitsWideRunes(t *testing.T) {
	// "…" is one column wide but three bytes long.
	assert.Equal(t, "0x12…5678  ", fit("0x12…5678", 11, AlignLeft))
}

func TestTableFooter(t *testing.T) {
	tbl := NewTable([]Column{{Title: "#", Width: 3}, {Title: "Price", Width: 8, Align: AlignRight}})
	tbl.AddRow(Row{"1", "0"})
	tbl.AddRow(Row{"2", "0.000001"})
	tbl.Footer = Row{"Σ", "0.000001"}

	result := tbl.Render()
	assert.Equal(t, 2, strings.Count(result, "--------"), "footer gets its own divider")
	assert.Contains(t, result, "Σ")
}

func TestKeyValueBlockAlignsOnLongestKey(t *testing.T) {
	out := KeyValueBlock("", [][2]string{{"A", "1"}, {"Longer key", "2"}})
	assert.Contains(t, out, "A:          1")
	assert.Contains(t, out, "Longer key: 2")
}

// ---------------------------------------------------------------------------
// Banner
// ---------------------------------------------------------------------------

func TestBannerContainsBranding(t *testing.T) {
	result := Banner()
	assert.Contains(t, result, "Bonding-curve token markets", "banner should contain product tagline")
	assert.Contains(t, result, Version, "banner should contain version")
}

func TestBannerNonEmpty(t *testing.T) {
	assert.NotEmpty(t, Banner())
}
