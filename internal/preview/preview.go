// Package preview renders what the panel shows inside the terminal, so
// widgets can be developed without a device attached.
package preview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/lcdterm/internal/keys"
	"github.com/zjrosen/lcdterm/internal/protocol"
	"github.com/zjrosen/lcdterm/internal/pubsub"
	"github.com/zjrosen/lcdterm/internal/screen"
)

// MaxLogLines is how many recent log lines are kept under the panel.
const MaxLogLines = 6

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	logStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// Model is the Bubble Tea model for the simulated panel.
type Model struct {
	snapshots *pubsub.Listener[screen.Snapshot]
	logs      *pubsub.Listener[string]

	snap     screen.Snapshot
	hasSnap  bool
	logLines []string
	showLogs bool
	help     help.Model
	width    int
	height   int
}

// New creates a preview fed by snapshots. logs may be nil when logging is off.
func New(snapshots *pubsub.Listener[screen.Snapshot], logs *pubsub.Listener[string]) Model {
	return Model{snapshots: snapshots, logs: logs, showLogs: true, help: help.New()}
}

// Init starts listening for snapshots and log lines.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.snapshots.Listen()}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Preview.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Preview.ToggleLogs):
			m.showLogs = !m.showLogs
		case key.Matches(msg, keys.Preview.ClearLogs):
			m.logLines = nil
		case key.Matches(msg, keys.Preview.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case pubsub.Event[screen.Snapshot]:
		m.snap = msg.Payload
		m.hasSnap = true
		return m, m.snapshots.Listen()

	case pubsub.Event[string]:
		m.logLines = append(m.logLines, strings.TrimRight(msg.Payload, "\n"))
		if len(m.logLines) > MaxLogLines {
			m.logLines = m.logLines[len(m.logLines)-MaxLogLines:]
		}
		if m.logs != nil {
			return m, m.logs.Listen()
		}
	}
	return m, nil
}

// Snapshot returns the last snapshot received and whether one arrived yet.
func (m Model) Snapshot() (screen.Snapshot, bool) {
	return m.snap, m.hasSnap
}

// View renders the panel followed by recent log lines.
func (m Model) View() string {
	var sb strings.Builder

	if !m.hasSnap {
		sb.WriteString(footerStyle.Render("waiting for the display…"))
	} else {
		sb.WriteString(RenderPanel(m.snap))
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(keys.Preview))

	if !m.showLogs {
		return sb.String()
	}
	for _, line := range m.logLines {
		sb.WriteString("\n")
		if m.width > 0 {
			line = ansi.Truncate(line, m.width, "…")
		}
		sb.WriteString(logStyle.Render(line))
	}
	return sb.String()
}

// RenderPanel draws snap as a bordered box of Columns x Rows cells.
func RenderPanel(snap screen.Snapshot) string {
	cols := max(snap.Columns, 1)
	body := lipgloss.NewStyle().
		Foreground(paletteColor(snap.Foreground)).
		Background(paletteColor(snap.Background))

	rows := make([]string, 0, snap.Rows)
	for i := 0; i < snap.Rows; i++ {
		var line string
		if i < len(snap.Lines) {
			line = snap.Lines[i]
		}
		rows = append(rows, body.Render(fitCells(line, cols)))
	}

	var sb strings.Builder
	if snap.Title != "" {
		sb.WriteString(titleStyle.Render(snap.Title))
		sb.WriteString("\n")
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(paletteColor(snap.Foreground))
	sb.WriteString(box.Render(strings.Join(rows, "\n")))
	sb.WriteString("\n")
	sb.WriteString(footerStyle.Render(footer(snap)))
	return sb.String()
}

func footer(snap screen.Snapshot) string {
	light := "unset"
	if snap.Backlight >= 0 {
		light = strconv.Itoa(snap.Backlight)
	}
	return fmt.Sprintf("%dx%d  fg %s  bg %s  backlight %s",
		snap.Columns, snap.Rows, snap.Foreground, snap.Background, light)
}

// fitCells truncates or pads s to exactly width terminal cells.
func fitCells(s string, width int) string {
	s = runewidth.Truncate(s, width, "")
	return runewidth.FillRight(s, width)
}

// paletteColor maps a panel color onto the matching ANSI color. The panel
// palette shares the ANSI ordering.
func paletteColor(c protocol.Color) lipgloss.Color {
	if !c.Valid() {
		c = protocol.White
	}
	return lipgloss.Color(strconv.Itoa(int(c)))
}
