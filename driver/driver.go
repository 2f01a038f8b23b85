// Package driver runs the poll, parse, append and draw cycle.
package driver

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/sensorplot/chart"
	"github.com/mastercactapus/sensorplot/sample"
	"github.com/mastercactapus/sensorplot/window"
)

const (
	DefaultInterval         = 20 * time.Millisecond
	DefaultDiscardWarnAfter = 50
)

// Config configures a Driver.
type Config struct {
	Source sample.Source
	Sink   Sink
	Layout chart.Layout

	// Session identifies this run in every frame.
	Session string

	// Interval between ticks; DefaultInterval if zero.
	Interval time.Duration

	// DiscardWarnAfter logs one warning after this many consecutive
	// discarded lines. Zero disables the warning.
	DiscardWarnAfter int

	// Metrics is optional.
	Metrics *Metrics

	// Log defaults to the logrus standard logger.
	Log logrus.FieldLogger
}

// Driver owns the sample window and is the only goroutine that touches it.
type Driver struct {
	src     sample.Source
	sink    Sink
	layout  chart.Layout
	session string

	interval  time.Duration
	warnAfter int
	metrics   *Metrics
	log       logrus.FieldLogger

	win *window.Window
	seq uint64

	discards int
	lastErr  string
	repeats  int
}

// New creates a Driver with an empty window of cfg.Layout.Capacity samples.
func New(cfg Config) *Driver {
	d := &Driver{
		src:       cfg.Source,
		sink:      cfg.Sink,
		layout:    cfg.Layout,
		session:   cfg.Session,
		interval:  cfg.Interval,
		warnAfter: cfg.DiscardWarnAfter,
		metrics:   cfg.Metrics,
		log:       cfg.Log,
		win:       window.New(cfg.Layout.Capacity),
	}
	if d.interval <= 0 {
		d.interval = DefaultInterval
	}
	if d.sink == nil {
		d.sink = Sinks(nil)
	}
	if d.metrics == nil {
		d.metrics = NewMetrics(nil)
	}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	return d
}

// Snapshot returns the current window contents.
func (d *Driver) Snapshot() []window.Point { return d.win.Snapshot() }

// Seq returns the number of samples accepted so far.
func (d *Driver) Seq() uint64 { return d.seq }

// Frame builds a frame of the current window.
func (d *Driver) Frame() chart.Frame {
	return d.layout.Frame(d.session, d.seq, d.win.Snapshot())
}

// Run ticks every interval until ctx is done. Ticks never overlap.
func (d *Driver) Run(ctx context.Context) error {
	t := time.NewTicker(d.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			d.Tick()
		}
	}
}

// Tick polls the source once, appends a sample if one was parsed, and
// draws the window regardless of the outcome. A panic anywhere in the tick
// is returned as a Failed outcome.
func (d *Driver) Tick() (out Outcome) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		out = Outcome{Kind: Failed, Err: errors.Errorf("tick: panic: %v", r)}
		d.report(out)
		d.metrics.observe(out, d.win.Len())
	}()

	out = d.poll()
	d.report(out)
	d.metrics.observe(out, d.win.Len())
	d.sink.Draw(d.Frame())

	if out.Kind == Appended {
		d.clearFailure()
	}
	return out
}

func (d *Driver) poll() (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Kind: Failed, Err: errors.Errorf("poll: panic: %v", r)}
		}
	}()

	line, err := d.src.Poll()
	if err == nil {
		var v int64
		v, err = sample.Parse(line)
		if err == nil {
			d.win.Append(v)
			d.seq++
			return Outcome{Kind: Appended, Value: v}
		}
	}

	switch {
	case errors.Is(err, sample.ErrNoData):
		return Outcome{Kind: NoData}
	case sample.IsMalformed(err):
		return Outcome{Kind: Discarded, Err: err}
	}
	return Outcome{Kind: Failed, Err: err}
}

func (d *Driver) report(out Outcome) {
	switch out.Kind {
	case Appended:
		d.discards = 0
	case Discarded:
		d.discards++
		d.log.WithError(out.Err).Debug("discard line")
		if d.warnAfter > 0 && d.discards == d.warnAfter {
			d.log.Warnf("no valid samples in the last %d lines; check the port and baud rate", d.discards)
		}
	case Failed:
		msg := out.Err.Error()
		if msg == d.lastErr {
			d.repeats++
			d.log.WithError(out.Err).Debug("tick failed again")
			return
		}
		d.lastErr, d.repeats = msg, 0
		d.log.WithError(out.Err).Error("tick failed")
	}
}

// clearFailure ends repeated-error suppression after a clean tick.
func (d *Driver) clearFailure() {
	if d.repeats > 0 {
		d.log.Infof("last error repeated %d more times", d.repeats)
	}
	d.lastErr, d.repeats = "", 0
}
