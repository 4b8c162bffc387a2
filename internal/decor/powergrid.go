package decor

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/atelier/internal/geometry"
)

// PowerGridParams configures the power-grid background: horizontal rails,
// vertical drops and junction nodes where they cross.
type PowerGridParams struct {
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	GridSize float64 `json:"grid_size" yaml:"grid_size"`
	// A node is drawn at every NodeEvery-th rail/drop crossing.
	NodeEvery   int     `json:"node_every" yaml:"node_every"`
	NodeRadius  float64 `json:"node_radius" yaml:"node_radius"`
	Opacity     float64 `json:"opacity" yaml:"opacity"`
	StrokeWidth float64 `json:"stroke_width" yaml:"stroke_width"`
}

// DefaultPowerGrid returns the parameters used on the projects page.
func DefaultPowerGrid() PowerGridParams {
	return PowerGridParams{
		Width:       1200,
		Height:      800,
		GridSize:    40,
		NodeEvery:   3,
		NodeRadius:  3,
		Opacity:     0.25,
		StrokeWidth: 1,
	}
}

// Normalize fills zero fields from defaults.
func (p PowerGridParams) Normalize(defaults PowerGridParams) PowerGridParams {
	fillFloat(&p.Width, defaults.Width)
	fillFloat(&p.Height, defaults.Height)
	fillFloat(&p.GridSize, defaults.GridSize)
	fillInt(&p.NodeEvery, defaults.NodeEvery)
	fillFloat(&p.NodeRadius, defaults.NodeRadius)
	fillFloat(&p.Opacity, defaults.Opacity)
	fillFloat(&p.StrokeWidth, defaults.StrokeWidth)
	return p
}

// Validate bounds the parameters.
func (p PowerGridParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Width, validation.Required, validation.Min(1.0), validation.Max(float64(maxCanvas))),
		validation.Field(&p.Height, validation.Required, validation.Min(1.0), validation.Max(float64(maxCanvas))),
		validation.Field(&p.GridSize, validation.Required, validation.Min(4.0)),
		validation.Field(&p.NodeEvery, validation.Min(0)),
		validation.Field(&p.NodeRadius, validation.Min(0.0)),
		validation.Field(&p.Opacity, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&p.StrokeWidth, validation.Min(0.0)),
	)
}

// PowerGrid builds the power-grid scene.
func PowerGrid(p PowerGridParams) Scene {
	rails := geometry.HorizontalLines(p.Width, p.Height, p.GridSize)
	drops := geometry.VerticalLines(p.Width, p.Height, p.GridSize)

	var nodes []Circle
	if p.NodeEvery > 0 && p.NodeRadius > 0 {
		for i, r := range rails {
			if i%p.NodeEvery != 0 {
				continue
			}
			for j, d := range drops {
				if j%p.NodeEvery != 0 {
					continue
				}
				nodes = append(nodes, Circle{CX: d.X1, CY: r.Y1, R: p.NodeRadius})
			}
		}
	}

	return Scene{
		Name:   ScenePowerGrid,
		Width:  p.Width,
		Height: p.Height,
		Layers: []Layer{
			{Name: "rails", Opacity: p.Opacity, StrokeWidth: p.StrokeWidth, Lines: rails},
			{Name: "drops", Opacity: p.Opacity, StrokeWidth: p.StrokeWidth, Lines: drops},
			{Name: "nodes", Opacity: p.Opacity, StrokeWidth: p.StrokeWidth, Circles: nodes},
		},
	}
}
