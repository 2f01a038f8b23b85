package driver

import "github.com/mastercactapus/sensorplot/chart"

// A Sink draws frames. Draw is called from the driver loop and must not
// block for long.
type Sink interface {
	Draw(chart.Frame)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(chart.Frame)

func (fn SinkFunc) Draw(f chart.Frame) { fn(f) }

// Sinks draws each frame on every sink in order.
type Sinks []Sink

func (s Sinks) Draw(f chart.Frame) {
	for _, sink := range s {
		sink.Draw(f)
	}
}
