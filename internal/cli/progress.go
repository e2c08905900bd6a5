package cli

import (
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cartoflow/cartoflow/pkg/layout"
)

// progressMsg carries a layout completion percentage into the TUI.
type progressMsg int

// resultMsg signals that the monitored operation has finished.
type resultMsg struct {
	err error
}

const progressBarWidth = 30

var (
	styleBarFilled = lipgloss.NewStyle().Foreground(colorInfo)
	styleBarEmpty  = lipgloss.NewStyle().Foreground(colorDim)
)

// progressModel is the bubbletea model for the layout progress bar.
// Pressing ctrl+c or q flags cancellation; the monitored operation
// observes the flag through its Monitor and stops at the next safe point.
type progressModel struct {
	label    string
	pct      int
	canceled *atomic.Bool
	err      error
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.pct = int(msg)
		return m, nil
	case resultMsg:
		m.err = msg.err
		m.pct = 100
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.canceled.Store(true)
			return m, nil
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	filled := m.pct * progressBarWidth / 100
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	bar := styleBarFilled.Render(repeatRune('█', filled)) +
		styleBarEmpty.Render(repeatRune('░', progressBarWidth-filled))
	line := fmt.Sprintf("%s %s %3d%%", m.label, bar, m.pct)
	if m.canceled.Load() {
		line += " " + StyleWarning.Render("(canceling)")
	}
	return line + "\n"
}

func repeatRune(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}

// runWithProgress runs fn under a terminal progress bar and returns its
// error. The Monitor handed to fn forwards percentages to the bar and
// reports cancellation requested from the keyboard. fn runs on its own
// goroutine while the TUI owns the calling goroutine.
func runWithProgress(label string, fn func(layout.Monitor) error) error {
	var canceled atomic.Bool
	prog := tea.NewProgram(progressModel{label: label, canceled: &canceled})

	monitor := layout.FuncMonitor{
		OnProgress: func(pct int) {
			prog.Send(progressMsg(pct))
		},
		IsCanceled: canceled.Load,
	}

	done := make(chan error, 1)
	go func() {
		err := fn(monitor)
		done <- err
		prog.Send(resultMsg{err: err})
	}()

	if _, err := prog.Run(); err != nil {
		// The TUI failed to start. The operation still runs, so wait
		// for it and report its outcome instead.
		return <-done
	}
	return <-done
}
