// Package tui is the interactive session explorer.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/NielsdaWheelz/suno-demo/internal/store"
)

// TUI forwards progress updates into a running program.
type TUI struct {
	program *tea.Program
}

func NewTUI(p *tea.Program) *TUI {
	return &TUI{program: p}
}

func (t *TUI) UpdateStatus(status string) {
	t.program.Send(StatusMsg(status))
}

func (t *TUI) UpdateProgress(done, total int) {
	t.program.Send(ProgressMsg{Done: done, Total: total})
}

func (t *TUI) Log(msg string) {
	t.program.Send(LogMsg(msg))
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// Workflows is what the explorer drives.
type Workflows interface {
	CreateInitialBatch(ctx context.Context, brief string, params store.BriefParams, numClips int) (*store.Session, error)
	MoreLikeCluster(ctx context.Context, sessionID, clusterID uuid.UUID, numClips int) (*store.Batch, error)
}

// Request describes the session the explorer starts.
type Request struct {
	Brief    string
	Params   store.BriefParams
	NumClips int
}

// Row is one cluster in the list.
type Row struct {
	Batch     int
	ClusterID uuid.UUID
	Label     string
	Tracks    []string
}

type LogMsg string
type StatusMsg string

type ProgressMsg struct {
	Done, Total int
}

type sessionMsg struct{ session *store.Session }
type batchMsg struct{ batch *store.Batch }
type errMsg struct{ err error }

type Model struct {
	Title     string
	Status    string
	Rows      []Row
	Cursor    int
	Busy      bool
	Done      int
	Total     int
	Log       []string
	Err       error
	SessionID uuid.UUID
	Quitting  bool
	Ready     bool
	Width     int
	Height    int

	ctx      context.Context
	wf       Workflows
	req      Request
	batches  int
	Spinner  spinner.Model
	Progress progress.Model
	Viewport viewport.Model
}

func NewModel(ctx context.Context, wf Workflows, req Request) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		Title:    "sunolab",
		Status:   "Starting session...",
		Busy:     true,
		ctx:      ctx,
		wf:       wf,
		req:      req,
		Spinner:  s,
		Progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, m.create())
}

func (m Model) create() tea.Cmd {
	return func() tea.Msg {
		sess, err := m.wf.CreateInitialBatch(m.ctx, m.req.Brief, m.req.Params, m.req.NumClips)
		if err != nil {
			return errMsg{err}
		}
		return sessionMsg{sess}
	}
}

func (m Model) more(clusterID uuid.UUID) tea.Cmd {
	sessionID := m.SessionID
	return func() tea.Msg {
		b, err := m.wf.MoreLikeCluster(m.ctx, sessionID, clusterID, m.req.NumClips)
		if err != nil {
			return errMsg{err}
		}
		return batchMsg{b}
	}
}

func (m *Model) addBatch(b store.Batch) {
	m.batches++
	for _, c := range b.Clusters {
		row := Row{Batch: m.batches, ClusterID: c.ID, Label: c.Label}
		for _, id := range c.TrackIDs {
			if t, ok := b.Track(id); ok {
				row.Tracks = append(row.Tracks, t.AudioURL)
			}
		}
		m.Rows = append(m.Rows, row)
	}
}

func (m *Model) appendLog(line string) {
	m.Log = append(m.Log, line)
	m.Viewport.SetContent(strings.Join(m.Log, "\n"))
	m.Viewport.GotoBottom()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.Quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
			}
		case "m":
			if !m.Busy && len(m.Rows) > 0 {
				row := m.Rows[m.Cursor]
				m.Busy = true
				m.Err = nil
				m.Done, m.Total = 0, 0
				m.Status = fmt.Sprintf("More like %q...", row.Label)
				return m, tea.Batch(m.Spinner.Tick, m.more(row.ClusterID))
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = max(msg.Width-4, 10)
		if !m.Ready {
			m.Viewport = viewport.New(msg.Width, max(msg.Height/3, 3))
			m.Viewport.SetContent(strings.Join(m.Log, "\n"))
			m.Ready = true
		} else {
			m.Viewport.Width = msg.Width
			m.Viewport.Height = max(msg.Height/3, 3)
		}

	case sessionMsg:
		m.Busy = false
		m.SessionID = msg.session.ID
		if b, ok := msg.session.LastBatch(); ok {
			m.addBatch(b)
		}
		m.Status = fmt.Sprintf("Session %s ready", msg.session.ID.String()[:8])

	case batchMsg:
		m.Busy = false
		m.addBatch(*msg.batch)
		m.Cursor = len(m.Rows) - 1
		m.Status = fmt.Sprintf("Batch %d ready", m.batches)

	case errMsg:
		m.Busy = false
		m.Err = msg.err
		m.appendLog("error: " + msg.err.Error())

	case LogMsg:
		m.appendLog(string(msg))

	case StatusMsg:
		m.Status = string(msg)

	case ProgressMsg:
		m.Done, m.Total = msg.Done, msg.Total

	case spinner.TickMsg:
		if m.Busy {
			var cmd tea.Cmd
			m.Spinner, cmd = m.Spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if _, ok := msg.(tea.MouseMsg); ok && m.Ready {
		var cmd tea.Cmd
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.Ready {
		return "\n  Initializing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + m.Title + " "))
	if m.Busy {
		b.WriteString(" " + m.Spinner.View())
	}
	b.WriteString(infoStyle.Render(" " + m.Status))
	b.WriteString("\n\n")

	ratio := 0.0
	if m.Total > 0 {
		ratio = float64(m.Done) / float64(m.Total)
	}
	b.WriteString(m.Progress.ViewAs(ratio))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString("  No clusters yet.\n")
	}
	for i, row := range m.Rows {
		line := fmt.Sprintf("b%d  %-24s %d tracks", row.Batch, row.Label, len(row.Tracks))
		if i == m.Cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.Err != nil {
		b.WriteString("\n" + errorStyle.Render(m.Err.Error()) + "\n")
	}
	b.WriteString("\n" + m.Viewport.View() + "\n")
	b.WriteString(helpStyle.Render("↑/↓ select • m more like this • q quit"))

	if m.Quitting {
		b.WriteString("\n  Quitting...\n")
	}
	return b.String()
}
