package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// PickerItem is one entry shown in the interactive picker.
type PickerItem struct {
	Label    string // primary text (e.g. wallet name)
	SubLabel string // secondary text shown dimmed (e.g. address)
	Value    string // value returned on selection (may differ from Label)
}

func (it PickerItem) matches(filter string) bool {
	f := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(it.Label), f) ||
		strings.Contains(strings.ToLower(it.SubLabel), f)
}

// pickerModel is the Bubble Tea model for the interactive list picker.
// Pressing / starts a filter on label and sub-label; the cursor indexes the
// filtered list.
type pickerModel struct {
	title     string
	items     []PickerItem
	cursor    int
	filter    string
	filtering bool
	selected  *PickerItem
	quitting  bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

// visible returns the items matching the current filter.
func (m pickerModel) visible() []PickerItem {
	if m.filter == "" {
		return m.items
	}
	var out []PickerItem
	for _, it := range m.items {
		if it.matches(m.filter) {
			out = append(out, it)
		}
	}
	return out
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.filtering {
		return m.updateFilter(key)
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "/":
		m.filtering = true
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case "enter", " ":
		return m.choose()
	}
	return m, nil
}

func (m pickerModel) updateFilter(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.filtering, m.filter, m.cursor = false, "", 0
	case tea.KeyEnter:
		return m.choose()
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case tea.KeyBackspace:
		if r := []rune(m.filter); len(r) > 0 {
			m.filter, m.cursor = string(r[:len(r)-1]), 0
		}
	case tea.KeyRunes:
		m.filter, m.cursor = m.filter+string(key.Runes), 0
	}
	return m, nil
}

func (m pickerModel) choose() (tea.Model, tea.Cmd) {
	items := m.visible()
	if m.cursor >= len(items) {
		return m, nil
	}
	item := items[m.cursor]
	m.selected = &item
	return m, tea.Quit
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(StyleTitle.Render("  "+m.title) + "\n")
	if m.filtering || m.filter != "" {
		sb.WriteString(StyleMeta.Render("  filter: ") + StyleValue.Render(m.filter) + "\n")
	}
	sb.WriteString("\n")

	items := m.visible()
	if len(items) == 0 {
		sb.WriteString(StyleMeta.Render("    no match") + "\n")
	}
	for i, item := range items {
		prefix := "    "
		if i == m.cursor {
			prefix = "  ▸ "
		}

		line := prefix + StyleValue.Render(item.Label)
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}

		if i == m.cursor {
			sb.WriteString(StyleSelected.Render(line) + "\n")
		} else {
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString("\n")
	help := "  [ ↑↓ / jk ] navigate   [ / ] filter   [ Enter ] select   [ q ] cancel"
	if m.filtering {
		help = "  type to filter   [ Enter ] select   [ Esc ] clear filter"
	}
	sb.WriteString(StyleMeta.Render(help) + "\n")
	return sb.String()
}

// PickItem runs an interactive list picker and returns the selected item's Value.
// Returns ("", nil) if the user cancels. Returns an error only on TUI failure.
func PickItem(title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("no items to pick from")
	}

	p := tea.NewProgram(pickerModel{title: title, items: items}, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}

	fm := final.(pickerModel)
	if fm.quitting || fm.selected == nil {
		return "", nil
	}
	return fm.selected.Value, nil
}
