// Package chart describes what a sample chart looks like and turns a window
// snapshot into something a display can draw.
package chart

import "github.com/mastercactapus/sensorplot/window"

const (
	DefaultTitle  = "Real-time Photodiode Sensor Data"
	DefaultXLabel = "Time (samples)"
	DefaultYLabel = "ADC Reading"

	DefaultYMin       = 0
	DefaultYMax       = 4100
	DefaultAutoMargin = 100
)

// Layout is the presentation configuration of a chart.
type Layout struct {
	Title  string
	XLabel string
	YLabel string

	// Capacity is the horizontal extent, [0, Capacity).
	Capacity int

	YMin, YMax float64

	// AutoScale fits the vertical range to the visible samples, padded by
	// AutoMargin, instead of using YMin and YMax.
	AutoScale  bool
	AutoMargin float64
}

// Frame is one render of the window.
type Frame struct {
	Session  string         `json:"session"`
	Seq      uint64         `json:"seq"`
	Title    string         `json:"title"`
	XLabel   string         `json:"xLabel"`
	YLabel   string         `json:"yLabel"`
	Capacity int            `json:"capacity"`
	YMin     float64        `json:"yMin"`
	YMax     float64        `json:"yMax"`
	Points   []window.Point `json:"points"`
}

// YRange returns the vertical extent used to draw points.
func (l Layout) YRange(points []window.Point) (min, max float64) {
	if !l.AutoScale || len(points) == 0 {
		return l.YMin, l.YMax
	}
	lo, hi := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	min = float64(lo) - l.AutoMargin
	max = float64(hi) + l.AutoMargin
	if max <= min {
		max = min + 1
	}
	return min, max
}

// Frame builds a Frame for the given snapshot. seq is the number of samples
// accepted so far.
func (l Layout) Frame(session string, seq uint64, points []window.Point) Frame {
	f := Frame{
		Session:  session,
		Seq:      seq,
		Title:    l.Title,
		XLabel:   l.XLabel,
		YLabel:   l.YLabel,
		Capacity: l.Capacity,
		Points:   points,
	}
	f.YMin, f.YMax = l.YRange(points)
	return f
}

// Last returns the newest point, if any.
func (f Frame) Last() (window.Point, bool) {
	if len(f.Points) == 0 {
		return window.Point{}, false
	}
	return f.Points[len(f.Points)-1], true
}
