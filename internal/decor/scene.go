// Package decor composes geometry primitives into the site's decorative
// backgrounds: the cutting mat, the power grid and the signal analyzer.
//
// A Scene is plain data. Serializing it to markup is the svg package's job.
package decor

import (
	"github.com/starford/atelier/internal/geometry"
)

// Scene is a canvas made of layers drawn in order.
type Scene struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Layers []Layer `json:"layers"`
}

// Layer is a group of primitives sharing presentation attributes. Opacity
// and StrokeWidth are passed through to the output untouched.
type Layer struct {
	Name        string          `json:"name"`
	Opacity     float64         `json:"opacity"`
	StrokeWidth float64         `json:"stroke_width"`
	OffsetX     float64         `json:"offset_x,omitempty"`
	Lines       []geometry.Line `json:"lines,omitempty"`
	Paths       []string        `json:"paths,omitempty"`
	Circles     []Circle        `json:"circles,omitempty"`
	Labels      []Label         `json:"labels,omitempty"`
}

// Circle is a filled dot.
type Circle struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	R  float64 `json:"r"`
}

// Label is a short text anchored at its baseline start.
type Label struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Primitives counts every drawable element in the scene.
func (s Scene) Primitives() int {
	n := 0
	for _, l := range s.Layers {
		n += len(l.Lines) + len(l.Paths) + len(l.Circles) + len(l.Labels)
	}
	return n
}

// Layer returns the first layer called name.
func (s Scene) Layer(name string) (Layer, bool) {
	for _, l := range s.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}
