package ui

import (
	"github.com/Mohsinsiddi/w3bond/internal/units"
	"github.com/charmbracelet/lipgloss"
	"github.com/holiman/uint256"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green: buy, success
	ColorWarning   = lipgloss.Color("#FFB800") // yellow: sell, warning
	ColorError     = lipgloss.Color("#FF4444") // red: error, danger
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan: addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold: amounts
	ColorMeta      = lipgloss.Color("#555555") // dim gray: timestamps, metadata
	ColorBorder    = lipgloss.Color("#1E3A5F") // dark blue: UI chrome
	ColorName      = lipgloss.Color("#9B5DE5") // purple: market and token names
	ColorHighlight = lipgloss.Color("#F15BB5") // pink: selected rows
	ColorInfo      = lipgloss.Color("#4EA8DE")
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleName    = lipgloss.NewStyle().Foreground(ColorName).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleDanger = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(ColorError).
			Padding(0, 1)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorName).
			Bold(true).
			MarginBottom(1)

	StyleDim = lipgloss.NewStyle().Foreground(ColorMeta)
)

// Version is printed in the banner and by --version.
const Version = "0.3.0"

// Banner returns the w3bond banner.
func Banner() string {
	art := `
  ┬ ┬┌─┐┌┐ ┌─┐┌┐┌┌┬┐
  │││ ─┤├┴┐│ ││││ ││
  └┴┘└─┘└─┘└─┘┘└┘─┴┘`

	tagline := StyleMeta.Render("  Bonding-curve token markets  ⚡  v" + Version)
	features := StyleMeta.Render("  ✦ linear curve  ✦ escrowed buys  ✦ ERC-20 ledgers")

	return StyleName.Render(art) + "\n" + tagline + "\n" + features + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational line.
func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a suggestion for what to run next.
func Hint(msg string) string { return StyleMeta.Render("💡 " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// Name formats a market or token name.
func Name(n string) string { return StyleName.Render(n) }

// DangerBox frames content that must not be shared, like a private key.
func DangerBox(content string) string { return StyleDanger.Render(content) }

// Amount renders v in whole units with its symbol, e.g. "1.5 ETH".
func Amount(v *uint256.Int, decimals uint8, symbol string) string {
	s := units.FormatUnits(v, decimals)
	if symbol == "" {
		return s
	}
	return s + " " + symbol
}

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
