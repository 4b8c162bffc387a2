package geometry

import (
	"math"
	"strings"

	"seehuhn.de/go/geom/vec"
)

const (
	minAngle = 30.0
	maxAngle = 150.0
)

// AngleDegrees returns count angles evenly spread over [30°, 150°], both
// ends included. A single line points straight up (90°).
func AngleDegrees(count int) []float64 {
	switch {
	case count <= 0:
		return nil
	case count == 1:
		return []float64{90}
	}
	step := (maxAngle - minAngle) / float64(count-1)
	out := make([]float64, count)
	for i := range out {
		out[i] = minAngle + float64(i)*step
	}
	// Pin the far end so rounding never leaves it at 149.99999.
	out[count-1] = maxAngle
	return out
}

// AngleLine is a protractor ray from the bottom-centre of the canvas.
type AngleLine struct {
	Degrees float64 `json:"degrees"`
	Line    Line    `json:"line"`
}

// BottomCenter is the origin shared by angle lines and arcs.
func BottomCenter(width, height float64) vec.Vec2 {
	return vec.Vec2{X: width / 2, Y: height}
}

// rayLength is long enough for a ray from the bottom-centre to leave the
// canvas at any angle, and never shorter than half the larger side.
func rayLength(width, height float64) float64 {
	return math.Max(math.Hypot(width/2, height), math.Max(width, height)*0.5)
}

// AngleLines returns count rays from BottomCenter at AngleDegrees(count).
// Angles are measured from the positive x axis; since y grows downward the
// rays point up into the canvas.
func AngleLines(width, height float64, count int) []AngleLine {
	if !(width > 0) || !(height > 0) {
		return nil
	}
	angles := AngleDegrees(count)
	if len(angles) == 0 {
		return nil
	}
	origin := BottomCenter(width, height)
	length := rayLength(width, height)
	out := make([]AngleLine, len(angles))
	for i, deg := range angles {
		rad := deg * math.Pi / 180
		dir := vec.Vec2{X: math.Cos(rad) * length, Y: -math.Sin(rad) * length}
		out[i] = AngleLine{
			Degrees: deg,
			Line:    lineBetween(origin, origin.Add(dir)),
		}
	}
	return out
}

// Arc is a semicircle standing on the bottom edge.
type Arc struct {
	Center vec.Vec2 `json:"center"`
	Radius float64  `json:"radius"`
	// Path is SVG path data for the arc.
	Path string `json:"path"`
}

// Arcs returns count concentric semicircles centred on BottomCenter. The
// radius of arc i is (i+1) * arcRadiusInterval * majorLineInterval.
func Arcs(width, height float64, count int, arcRadiusInterval, majorLineInterval float64) []Arc {
	step := arcRadiusInterval * majorLineInterval
	if count <= 0 || !(step > 0) || !(width > 0) || !(height > 0) {
		return nil
	}
	c := BottomCenter(width, height)
	out := make([]Arc, count)
	for i := range out {
		r := float64(i+1) * step
		out[i] = Arc{Center: c, Radius: r, Path: arcPath(c, r)}
	}
	return out
}

func arcPath(c vec.Vec2, r float64) string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, c.X-r, c.Y)
	b.WriteString(" A ")
	b.WriteString(formatNumber(r))
	b.WriteByte(' ')
	b.WriteString(formatNumber(r))
	b.WriteString(" 0 0 1 ")
	writePoint(&b, c.X+r, c.Y)
	return b.String()
}
