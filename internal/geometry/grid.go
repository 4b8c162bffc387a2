// Package geometry computes the coordinates behind the site's decorative
// backgrounds: ruled grid lines, ruler teeth, protractor rays and arcs, and
// square-wave signal traces.
//
// Every function is pure and total. Degenerate input (zero or negative sizes,
// intervals or counts) produces empty output instead of an error, because the
// results are spliced straight into markup.
package geometry

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// Line is a straight segment from (X1, Y1) to (X2, Y2) in canvas units.
// The y axis grows downward, as in SVG.
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Start returns the first endpoint.
func (l Line) Start() vec.Vec2 { return vec.Vec2{X: l.X1, Y: l.Y1} }

// End returns the second endpoint.
func (l Line) End() vec.Vec2 { return vec.Vec2{X: l.X2, Y: l.Y2} }

func lineBetween(a, b vec.Vec2) Line {
	return Line{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}

// GridLines returns the offsets gridSize, 2*gridSize, ... that are strictly
// below height. The result is empty when gridSize <= 0, gridSize >= height,
// or either value is NaN or infinite.
func GridLines(height, gridSize float64) []float64 {
	if !(gridSize > 0) || !(height > gridSize) || math.IsInf(height, 0) {
		return nil
	}
	steps := height / gridSize
	if math.IsInf(steps, 0) {
		return nil
	}
	out := make([]float64, 0, int(steps))
	// Multiply instead of accumulating so long runs don't drift.
	for k := 1; ; k++ {
		y := float64(k) * gridSize
		if y >= height {
			break
		}
		out = append(out, y)
	}
	return out
}

// HorizontalLines returns full-width lines anchored to the bottom edge and
// ascending from it: y = height - k*gridSize for every offset produced by
// GridLines(height, gridSize).
func HorizontalLines(width, height, gridSize float64) []Line {
	if !(width > 0) {
		return nil
	}
	offsets := GridLines(height, gridSize)
	out := make([]Line, len(offsets))
	for i, off := range offsets {
		y := height - off
		out[i] = Line{X1: 0, Y1: y, X2: width, Y2: y}
	}
	return out
}

// VerticalLines returns floor(width/gridSize) - 1 full-height lines spaced
// gridSize apart and centred on width/2, so they radiate symmetrically to the
// left and right of the middle of the canvas.
//
// The count deliberately differs from HorizontalLines: the vertical axis
// starts one interval further in from each side.
func VerticalLines(width, height, gridSize float64) []Line {
	if !(gridSize > 0) || !(width > 0) || !(height > 0) || math.IsInf(width, 0) {
		return nil
	}
	steps := math.Floor(width / gridSize)
	if math.IsInf(steps, 0) {
		return nil
	}
	n := int(steps) - 1
	if n <= 0 {
		return nil
	}
	cx := width / 2
	first := cx - float64(n-1)/2*gridSize
	out := make([]Line, n)
	for i := range n {
		x := first + float64(i)*gridSize
		out[i] = Line{X1: x, Y1: 0, X2: x, Y2: height}
	}
	return out
}

// Edge selects the canvas side that ruler teeth hang from.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

// Tooth is one ruler mark.
type Tooth struct {
	Line  Line `json:"line"`
	Major bool `json:"major"`
}

// ToothSpec describes a run of ruler marks along one edge of a canvas.
type ToothSpec struct {
	// Length of the edge the teeth run along.
	Length float64
	// Extent of the canvas orthogonal to the edge; used to anchor the
	// bottom and right edges.
	Depth    float64
	Interval float64
	// Every MajorEvery-th tooth is drawn with MajorLen instead of MinorLen.
	// Zero or negative disables major teeth.
	MajorEvery int
	MinorLen   float64
	MajorLen   float64
	Edge       Edge
}

// ToothMarks returns ruler marks at Interval, 2*Interval, ... strictly below
// Length, each extending inward from the chosen edge.
func ToothMarks(spec ToothSpec) []Tooth {
	offsets := GridLines(spec.Length, spec.Interval)
	out := make([]Tooth, len(offsets))
	for i, off := range offsets {
		major := spec.MajorEvery > 0 && (i+1)%spec.MajorEvery == 0
		size := spec.MinorLen
		if major {
			size = spec.MajorLen
		}
		var l Line
		switch spec.Edge {
		case EdgeBottom:
			l = Line{X1: off, Y1: spec.Depth, X2: off, Y2: spec.Depth - size}
		case EdgeLeft:
			l = Line{X1: 0, Y1: off, X2: size, Y2: off}
		case EdgeRight:
			l = Line{X1: spec.Depth, Y1: off, X2: spec.Depth - size, Y2: off}
		default:
			l = Line{X1: off, Y1: 0, X2: off, Y2: size}
		}
		out[i] = Tooth{Line: l, Major: major}
	}
	return out
}
