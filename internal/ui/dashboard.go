package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

// MarketEntry is one market row on the live dashboard. Amounts are decimal
// strings in whole units.
type MarketEntry struct {
	Name      string
	Address   string
	Supply    string
	BuyPrice  string
	SellPrice string
	Escrow    string
	Solvent   bool
}

// dashboardModel redraws every market on each tick. Supply moves since the
// previous fetch are marked, and the escrow column is totalled.
type dashboardModel struct {
	entries    []MarketEntry
	moves      map[string]int // market name -> sign of its supply change
	cursor     int
	lastUpdate time.Time
	interval   time.Duration
	quitting   bool
	fetcher    func() ([]MarketEntry, error)
	err        string
}

type tickMsg time.Time
type marketsFetchedMsg []MarketEntry
type marketsErrorMsg string

// NewDashboard creates a Bubble Tea program that re-reads every market on
// each tick.
func NewDashboard(interval time.Duration, fetcher func() ([]MarketEntry, error)) *tea.Program {
	return tea.NewProgram(newDashboardModel(interval, fetcher))
}

func newDashboardModel(interval time.Duration, fetcher func() ([]MarketEntry, error)) dashboardModel {
	return dashboardModel{interval: interval, fetcher: fetcher, moves: map[string]int{}}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), tick(m.interval))
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		}

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), tick(m.interval))

	case marketsFetchedMsg:
		m.moves = supplyMoves(m.entries, msg)
		m.entries = []MarketEntry(msg)
		m.cursor = min(m.cursor, max(len(m.entries)-1, 0))
		m.lastUpdate = time.Now()
		m.err = ""

	case marketsErrorMsg:
		m.err = string(msg)
	}

	return m, nil
}

// supplyMoves compares supplies by market name. New markets and unparsable
// amounts count as unchanged.
func supplyMoves(prev, next []MarketEntry) map[string]int {
	before := make(map[string]string, len(prev))
	for _, e := range prev {
		before[e.Name] = e.Supply
	}
	out := make(map[string]int, len(next))
	for _, e := range next {
		old, ok := before[e.Name]
		if !ok {
			continue
		}
		a, errA := decimal.NewFromString(old)
		b, errB := decimal.NewFromString(e.Supply)
		if errA == nil && errB == nil {
			out[e.Name] = b.Cmp(a)
		}
	}
	return out
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("⚡ Markets") + "\n")
	sb.WriteString(StyleMeta.Render(fmt.Sprintf("Updated: %s · ↑↓ select · q to quit\n\n", m.lastUpdate.Format("15:04:05"))))

	if m.err != "" {
		sb.WriteString(Err(m.err) + "\n")
	}

	if len(m.entries) == 0 {
		sb.WriteString(StyleMeta.Render("No markets deployed.") + "\n")
		return sb.String()
	}

	t := NewTable([]Column{
		{Title: "Market", Width: 12},
		{Title: "Address", Width: 13},
		{Title: "Supply", Width: 14, Align: AlignRight},
		{Title: "", Width: 1},
		{Title: "Buy", Width: 16, Align: AlignRight},
		{Title: "Sell", Width: 16, Align: AlignRight},
		{Title: "Escrow", Width: 16, Align: AlignRight},
		{Title: "Solvent", Width: 7},
	})
	escrow := decimal.Zero
	for _, e := range m.entries {
		solvent := "yes"
		if !e.Solvent {
			solvent = "NO"
		}
		move := ""
		switch m.moves[e.Name] {
		case 1:
			move = "▲"
		case -1:
			move = "▼"
		}
		if v, err := decimal.NewFromString(e.Escrow); err == nil {
			escrow = escrow.Add(v)
		}
		t.AddRow(Row{e.Name, TruncateAddr(e.Address), e.Supply, move, e.BuyPrice, e.SellPrice, e.Escrow, solvent})
	}
	t.SelIdx = m.cursor
	if len(m.entries) > 1 {
		t.Footer = Row{"total", "", "", "", "", "", escrow.String(), ""}
	}
	sb.WriteString(t.Render())
	return sb.String()
}

func (m dashboardModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.fetcher()
		if err != nil {
			return marketsErrorMsg(err.Error())
		}
		return marketsFetchedMsg(entries)
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
