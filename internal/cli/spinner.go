package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guiyumin/vclip/internal/core/logging"
	"golang.org/x/term"
)

var (
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
)

// taskState is shared between the worker goroutine and the TUI.
type taskState struct {
	mu      sync.RWMutex
	done    bool
	err     error
	started time.Time
}

func (s *taskState) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.err = err
}

func (s *taskState) get() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done, s.err
}

type taskTickMsg time.Time

type taskModel struct {
	spinner   spinner.Model
	label     string
	detail    string
	state     *taskState
	cancel    context.CancelFunc
	cancelled bool
}

func taskTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return taskTickMsg(t)
	})
}

func (m taskModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, taskTickCmd())
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			m.cancelled = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case taskTickMsg:
		if done, _ := m.state.get(); done {
			return m, tea.Quit
		}
		return m, taskTickCmd()
	}

	return m, nil
}

func (m taskModel) View() string {
	done, err := m.state.get()
	elapsed := time.Since(m.state.started).Round(time.Second)

	if err != nil {
		return fmt.Sprintf("\n  %s %s: %v\n\n", errStyle.Render("✗"), m.label, err)
	}
	if done {
		return fmt.Sprintf("\n  %s %s %s\n\n", doneStyle.Render("✓"), m.label, hintStyle.Render(elapsed.String()))
	}
	return fmt.Sprintf("\n  %s %s: %s %s\n\n",
		m.spinner.View(),
		m.label,
		infoStyle.Render(m.detail),
		hintStyle.Render(elapsed.String()),
	)
}

// withSpinner runs fn in the background behind a spinner. Without a
// terminal it just runs fn. Logging is muted while the spinner owns the
// screen.
func withSpinner[T any](ctx context.Context, label, detail string, fn func(context.Context) (T, error)) (T, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) || verbose {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := &taskState{started: time.Now()}
	var result T
	go func() {
		r, err := fn(ctx)
		result = r
		state.finish(err)
	}()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	logging.SetOutput(io.Discard)
	defer logging.SetOutput(os.Stderr)

	final, err := tea.NewProgram(taskModel{
		spinner: s,
		label:   label,
		detail:  detail,
		state:   state,
		cancel:  cancel,
	}).Run()
	if err != nil {
		var zero T
		return zero, err
	}
	if m, ok := final.(taskModel); ok && m.cancelled {
		var zero T
		return zero, context.Canceled
	}

	_, taskErr := state.get()
	return result, taskErr
}
