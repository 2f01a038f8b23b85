// Package tui draws the sample chart in a terminal window.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/sensorplot/chart"
)

// Display is a terminal chart window. Draw and Status may be called from
// any goroutine; only the newest pending frame and status are kept.
type Display struct {
	layout chart.Layout

	frames chan chart.Frame
	status chan string
	done   chan struct{}

	opts []tea.ProgramOption
}

// New creates a Display. Extra program options are appended to the
// defaults (alternate screen, cancellation by context).
func New(layout chart.Layout, opts ...tea.ProgramOption) *Display {
	return &Display{
		layout: layout,
		frames: make(chan chart.Frame, 1),
		status: make(chan string, 1),
		done:   make(chan struct{}),
		opts:   opts,
	}
}

// Draw replaces the pending frame.
func (d *Display) Draw(f chart.Frame) {
	select {
	case d.frames <- f:
		return
	default:
	}
	select {
	case <-d.frames:
	default:
	}
	select {
	case d.frames <- f:
	default:
	}
}

// Status replaces the message shown in the footer.
func (d *Display) Status(msg string) {
	select {
	case d.status <- msg:
		return
	default:
	}
	select {
	case <-d.status:
	default:
	}
	select {
	case d.status <- msg:
	default:
	}
}

// Run shows the window until the user closes it or ctx is done. It must
// be called at most once.
func (d *Display) Run(ctx context.Context) error {
	defer close(d.done)

	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, d.opts...)
	p := tea.NewProgram(newModel(d), opts...)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// cancelled from outside, not a failure
		return nil
	}
	return err
}

// Hook forwards warnings and errors into the window's footer.
func (d *Display) Hook() logrus.Hook { return statusHook{d: d} }

type statusHook struct{ d *Display }

func (statusHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

func (h statusHook) Fire(e *logrus.Entry) error {
	msg := strings.ToUpper(e.Level.String()) + ": " + e.Message
	if err, ok := e.Data[logrus.ErrorKey].(error); ok {
		msg += ": " + err.Error()
	}
	h.d.Status(msg)
	return nil
}
