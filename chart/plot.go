package chart

import (
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// Plot draws f as a line graph at most height rows tall and width cells
// wide, top row first, with the y range labeled on the left.
//
// The x axis spans the whole capacity; slots not yet filled stay empty.
// Points outside [YMin, YMax] are clipped so the axis never moves. Plot
// returns nil if the area is too small to draw anything.
func Plot(f Frame, width, height int) []string {
	if f.Capacity < 1 || height < 2 {
		return nil
	}
	cols := width - gutterWidth(f.YMin, f.YMax)
	if cols < 2 {
		return nil
	}

	series := make([]float64, f.Capacity)
	for i := range series {
		series[i] = math.NaN()
	}
	for _, p := range f.Points {
		if p.Index < 0 || p.Index >= f.Capacity {
			continue
		}
		series[p.Index] = clip(float64(p.Value), f.YMin, f.YMax)
	}

	graph := asciigraph.Plot(series,
		asciigraph.LowerBound(f.YMin),
		asciigraph.UpperBound(f.YMax),
		asciigraph.Height(height-1),
		asciigraph.Width(cols),
		asciigraph.Precision(0),
	)
	rows := strings.Split(graph, "\n")
	if len(rows) > height {
		rows = rows[:height]
	}
	return rows
}

// gutterWidth is the number of cells used by the y labels and the axis.
func gutterWidth(min, max float64) int {
	graph := asciigraph.Plot([]float64{min, max}, asciigraph.Height(1), asciigraph.Precision(0))
	first := graph
	if i := strings.IndexByte(graph, '\n'); i >= 0 {
		first = graph[:i]
	}

	n := 0
	for _, r := range first {
		n++
		if r == '┤' || r == '┼' {
			return n
		}
	}
	return n
}

func clip(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
