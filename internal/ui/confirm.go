package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Input is where prompts read answers from.
var Input io.Reader = os.Stdin

// in buffers Input across prompts, so piped answers are not lost.
var (
	in    *bufio.Reader
	inSrc io.Reader
)

// Confirm asks a yes/no question. Anything but y or yes is no.
func Confirm(prompt string) bool { return ask(StyleWarning, prompt) }

// ConfirmDanger is Confirm for destructive actions.
func ConfirmDanger(prompt string) bool { return ask(StyleError, "⚠ "+prompt) }

// PromptInput asks for a line of free text and returns it trimmed.
func PromptInput(prompt string) string {
	fmt.Printf("%s ", StyleInfo.Render(prompt))
	return strings.TrimSpace(readLine())
}

func ask(style lipgloss.Style, prompt string) bool {
	fmt.Printf("%s [y/N]: ", style.Render(prompt))
	switch strings.ToLower(strings.TrimSpace(readLine())) {
	case "y", "yes":
		return true
	}
	return false
}

func readLine() string {
	if in == nil || inSrc != Input {
		in, inSrc = bufio.NewReader(Input), Input
	}
	line, _ := in.ReadString('\n')
	return line
}
