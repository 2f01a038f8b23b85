package driver

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/mastercactapus/sensorplot/chart"
	"github.com/mastercactapus/sensorplot/sample"
	"github.com/mastercactapus/sensorplot/sample/sampletest"
	"github.com/mastercactapus/sensorplot/window"
)

type frameRecorder struct{ frames []chart.Frame }

func (r *frameRecorder) Draw(f chart.Frame) { r.frames = append(r.frames, f) }

func newTestDriver(src sample.Source, capacity int) (*Driver, *frameRecorder, *test.Hook, *Metrics) {
	logger, hook := test.NewNullLogger()
	rec := &frameRecorder{}
	m := NewMetrics(prometheus.NewRegistry())
	d := New(Config{
		Source:           src,
		Sink:             rec,
		Layout:           chart.Layout{Capacity: capacity, YMin: 0, YMax: 4100},
		Session:          "test",
		DiscardWarnAfter: 3,
		Metrics:          m,
		Log:              logger,
	})
	return d, rec, hook, m
}

func TestDriver_Tick(t *testing.T) {
	src := &sampletest.Script{Lines: []string{"abc", "1234"}}
	d, rec, hook, m := newTestDriver(src, 100)

	out := d.Tick()
	assert.Equal(t, Discarded, out.Kind)
	assert.True(t, sample.IsMalformed(out.Err))
	assert.Empty(t, d.Snapshot())

	out = d.Tick()
	assert.Equal(t, Appended, out.Kind)
	assert.Equal(t, int64(1234), out.Value)
	assert.Equal(t, []window.Point{{Index: 0, Value: 1234}}, d.Snapshot())

	// nothing surfaced to the operator
	assert.Empty(t, hook.AllEntries())

	// every tick draws, whatever the outcome
	assert.Len(t, rec.frames, 2)
	assert.Empty(t, rec.frames[0].Points)
	assert.Equal(t, uint64(1), rec.frames[1].Seq)
	assert.Equal(t, "test", rec.frames[1].Session)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Samples))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Discarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Length))
}

func TestDriver_Tick_NoData(t *testing.T) {
	src := &sampletest.Script{Lines: []string{"", "  "}}
	d, rec, hook, _ := newTestDriver(src, 10)

	assert.Equal(t, NoData, d.Tick().Kind)
	assert.Equal(t, NoData, d.Tick().Kind)
	// exhausted script
	assert.Equal(t, NoData, d.Tick().Kind)

	assert.Empty(t, d.Snapshot())
	assert.Len(t, rec.frames, 3)
	assert.Empty(t, hook.AllEntries())
}

func TestDriver_Tick_Window(t *testing.T) {
	src := &sampletest.Script{}
	for i := 0; i < 150; i++ {
		src.Lines = append(src.Lines, string(rune('0'+i%10)))
	}
	d, _, _, m := newTestDriver(src, 100)
	for i := 0; i < 150; i++ {
		assert.Equal(t, Appended, d.Tick().Kind)
	}

	snap := d.Snapshot()
	assert.Len(t, snap, 100)
	for i, p := range snap {
		assert.Equal(t, int64((50+i)%10), p.Value)
	}
	assert.Equal(t, uint64(150), d.Seq())
	assert.Equal(t, 150.0, testutil.ToFloat64(m.Samples))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.Length))
}

func TestDriver_Tick_Failed(t *testing.T) {
	src := &sampletest.Script{
		Lines: []string{"", "", "", "7", ""},
		Errs:  []error{io.ErrUnexpectedEOF, io.ErrUnexpectedEOF, io.ErrUnexpectedEOF, nil, io.ErrUnexpectedEOF},
	}
	d, _, hook, m := newTestDriver(src, 10)

	for i := 0; i < 3; i++ {
		out := d.Tick()
		assert.Equal(t, Failed, out.Kind)
		assert.Equal(t, io.ErrUnexpectedEOF, out.Err)
	}
	// identical consecutive errors are logged once
	assert.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	assert.Equal(t, Appended, d.Tick().Kind)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	assert.Equal(t, Failed, d.Tick().Kind)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Len(t, hook.AllEntries(), 3)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.Failures))
	assert.Equal(t, []window.Point{{Index: 0, Value: 7}}, d.Snapshot())
}

type panicSource struct{}

func (panicSource) Poll() ([]byte, error) { panic("boom") }
func (panicSource) Close() error          { return nil }

func TestDriver_Tick_Panic(t *testing.T) {
	d, rec, hook, _ := newTestDriver(panicSource{}, 10)

	out := d.Tick()
	assert.Equal(t, Failed, out.Kind)
	assert.Contains(t, out.Err.Error(), "boom")
	assert.Len(t, rec.frames, 1)
	assert.Len(t, hook.AllEntries(), 1)
}

func TestDriver_Tick_SinkPanic(t *testing.T) {
	logger, hook := test.NewNullLogger()
	m := NewMetrics(prometheus.NewRegistry())
	d := New(Config{
		Source:  &sampletest.Script{Lines: []string{"1", "2", "3"}},
		Sink:    SinkFunc(func(chart.Frame) { panic("sink boom") }),
		Layout:  chart.Layout{Capacity: 10, YMax: 4100},
		Metrics: m,
		Log:     logger,
	})

	for i := 0; i < 3; i++ {
		var out Outcome
		assert.NotPanics(t, func() { out = d.Tick() })
		assert.Equal(t, Failed, out.Kind)
		assert.Contains(t, out.Err.Error(), "sink boom")
	}

	// samples still land in the window
	assert.Equal(t, []window.Point{{Index: 0, Value: 1}, {Index: 1, Value: 2}, {Index: 2, Value: 3}}, d.Snapshot())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Samples))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Failures))

	// the same failure is logged once even though samples keep arriving
	assert.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestDriver_Run_SinkPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &sampletest.Script{Lines: []string{"1", "2", "3"}}
	logger, _ := test.NewNullLogger()
	d := New(Config{
		Source:   src,
		Sink:     SinkFunc(func(chart.Frame) { panic("sink boom") }),
		Layout:   chart.Layout{Capacity: 10},
		Interval: time.Millisecond,
		Log:      logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- d.Run(ctx) }()

	// the loop keeps going past panicking draws
	assert.Eventually(t, func() bool { return src.Remaining() == 0 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestDriver_DiscardWarning(t *testing.T) {
	src := &sampletest.Script{Lines: []string{"x", "x", "x", "x", "x", "1", "x", "x", "x"}}
	d, _, hook, _ := newTestDriver(src, 10)

	for range src.Lines {
		d.Tick()
	}

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	// once per streak of three
	assert.Equal(t, 2, warnings)
}

func TestDriver_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &sampletest.Script{Lines: []string{"1", "2", "3"}}
	logger, _ := test.NewNullLogger()
	d := New(Config{
		Source:   src,
		Layout:   chart.Layout{Capacity: 2},
		Interval: time.Millisecond,
		Log:      logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- d.Run(ctx) }()

	assert.Eventually(t, func() bool { return src.Remaining() == 0 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)

	assert.Equal(t, []window.Point{{Index: 0, Value: 2}, {Index: 1, Value: 3}}, d.Snapshot())
}

func TestSinks(t *testing.T) {
	var a, b []chart.Frame
	s := Sinks{
		SinkFunc(func(f chart.Frame) { a = append(a, f) }),
		SinkFunc(func(f chart.Frame) { b = append(b, f) }),
	}
	s.Draw(chart.Frame{Seq: 1})
	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "appended", Appended.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
