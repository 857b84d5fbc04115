// Package progress shows a spinner while update-info's blocking solves run.
// The work runs on its own goroutine; the view only reflects the stage
// updates it sends.
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	instanceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	stageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

type stageMsg struct {
	instance string
	stage    string
}

type doneMsg struct {
	err error
}

// Model is the bubbletea model behind Run.
type Model struct {
	spinner  spinner.Model
	instance string
	stage    string
	since    time.Time
	finished []string
	err      error
	done     bool
	clock    func() time.Time
}

func NewModel() *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = instanceStyle
	return &Model{spinner: s, clock: time.Now}
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stageMsg:
		if m.instance != "" && msg.instance != m.instance {
			m.finished = append(m.finished, m.instance)
		}
		m.instance = msg.instance
		m.stage = msg.stage
		m.since = m.clock()
		return m, nil
	case doneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		// Solves cannot be interrupted; only leave the view.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	if len(m.finished) > 0 {
		b.WriteString(doneStyle.Render(fmt.Sprintf("done: %s", strings.Join(m.finished, " "))))
		b.WriteString("\n")
	}
	if m.instance == "" {
		b.WriteString(m.spinner.View() + " starting…")
		return b.String()
	}
	elapsed := m.clock().Sub(m.since).Truncate(time.Second)
	b.WriteString(fmt.Sprintf("%s %s %s", m.spinner.View(), instanceStyle.Render(m.instance),
		stageStyle.Render(fmt.Sprintf("%s · %s", stageLabel(m.stage), elapsed))))
	return b.String()
}

func stageLabel(stage string) string {
	switch stage {
	case "artifact":
		return "writing solution"
	case "":
		return "working"
	}
	return stage + " solve"
}

// Err returns the error the work finished with.
func (m *Model) Err() error { return m.err }

// Reporter forwards stage changes to a running program. It satisfies
// collector.Progress.
type Reporter struct {
	program *tea.Program
}

// Stage implements collector.Progress.
func (r *Reporter) Stage(instance, stage string) {
	if r == nil || r.program == nil {
		return
	}
	r.program.Send(stageMsg{instance: instance, stage: stage})
}

// Run executes work while rendering a spinner to out and returns work's
// error. Keyboard input is not read. Run does not return before work does,
// even when the program is stopped early.
func Run(out io.Writer, work func(*Reporter) error) error {
	reporter := &Reporter{}
	program := tea.NewProgram(NewModel(), tea.WithOutput(out), tea.WithInput(nil))
	reporter.program = program

	done := make(chan error, 1)
	go func() {
		err := work(reporter)
		done <- err
		// Returns at once when the program has already exited.
		program.Send(doneMsg{err: err})
	}()

	_, runErr := program.Run()
	workErr := <-done
	if workErr != nil {
		return workErr
	}
	if runErr != nil {
		return fmt.Errorf("progress: %w", runErr)
	}
	return nil
}
