package decor

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/atelier/internal/geometry"
)

const maxCanvas = 8192

// minMinorInterval keeps the finest grid coarse enough that the line count
// stays bounded by maxCanvas/minMinorInterval per axis.
const minMinorInterval = 2.0

// CuttingMatParams configures the cutting-mat background.
type CuttingMatParams struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	// MajorInterval is the spacing of the primary ruled lines.
	MajorInterval float64 `json:"major_interval" yaml:"major_interval"`
	// Ratio subdivides each major interval: minor = major / ratio.
	Ratio             int     `json:"ratio" yaml:"ratio"`
	ArcCount          int     `json:"arc_count" yaml:"arc_count"`
	ArcRadiusInterval float64 `json:"arc_radius_interval" yaml:"arc_radius_interval"`
	AngleCount        int     `json:"angle_count" yaml:"angle_count"`
	Opacity           float64 `json:"opacity" yaml:"opacity"`
	StrokeWidth       float64 `json:"stroke_width" yaml:"stroke_width"`
}

// DefaultCuttingMat returns the parameters used on the home page.
func DefaultCuttingMat() CuttingMatParams {
	return CuttingMatParams{
		Width:             1200,
		Height:            800,
		MajorInterval:     50,
		Ratio:             5,
		ArcCount:          6,
		ArcRadiusInterval: 2,
		AngleCount:        5,
		Opacity:           0.3,
		StrokeWidth:       1,
	}
}

// Normalize fills zero sizes, intervals and style values from defaults.
// Counts are left alone: zero arcs or angle lines means none.
func (p CuttingMatParams) Normalize(defaults CuttingMatParams) CuttingMatParams {
	fillFloat(&p.Width, defaults.Width)
	fillFloat(&p.Height, defaults.Height)
	fillFloat(&p.MajorInterval, defaults.MajorInterval)
	fillInt(&p.Ratio, defaults.Ratio)
	fillFloat(&p.ArcRadiusInterval, defaults.ArcRadiusInterval)
	fillFloat(&p.Opacity, defaults.Opacity)
	fillFloat(&p.StrokeWidth, defaults.StrokeWidth)
	return p
}

// Validate bounds the parameters so a request cannot ask for an absurd
// number of primitives.
func (p CuttingMatParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Width, validation.Required, validation.Min(1.0), validation.Max(float64(maxCanvas))),
		validation.Field(&p.Height, validation.Required, validation.Min(1.0), validation.Max(float64(maxCanvas))),
		validation.Field(&p.MajorInterval, validation.Required, validation.Min(4.0)),
		validation.Field(&p.Ratio, validation.Required, validation.Min(1), validation.Max(20),
			validation.By(func(any) error {
				if p.MinorInterval() < minMinorInterval {
					return errors.New("minor interval (major_interval / ratio) must be at least 2")
				}
				return nil
			})),
		validation.Field(&p.ArcCount, validation.Min(0), validation.Max(64)),
		validation.Field(&p.ArcRadiusInterval, validation.Min(0.0)),
		validation.Field(&p.AngleCount, validation.Min(0), validation.Max(64)),
		validation.Field(&p.Opacity, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&p.StrokeWidth, validation.Min(0.0)),
	)
}

// MinorInterval is MajorInterval / Ratio.
func (p CuttingMatParams) MinorInterval() float64 {
	if p.Ratio <= 0 {
		return p.MajorInterval
	}
	return p.MajorInterval / float64(p.Ratio)
}

// CuttingMat builds the cutting-mat scene: minor and major grid lines,
// ruler teeth along the top and left edges, and a protractor of rays and
// arcs rising from the bottom-centre.
func CuttingMat(p CuttingMatParams) Scene {
	w, h := p.Width, p.Height
	minor := p.MinorInterval()

	grid := func(interval float64) []geometry.Line {
		return append(geometry.HorizontalLines(w, h, interval), geometry.VerticalLines(w, h, interval)...)
	}

	ruler := func(edge geometry.Edge, length, depth float64) []geometry.Line {
		teeth := geometry.ToothMarks(geometry.ToothSpec{
			Length:     length,
			Depth:      depth,
			Interval:   minor,
			MajorEvery: p.Ratio,
			MinorLen:   minor * 0.6,
			MajorLen:   minor * 1.2,
			Edge:       edge,
		})
		out := make([]geometry.Line, len(teeth))
		for i, t := range teeth {
			out[i] = t.Line
		}
		return out
	}

	var rays []geometry.Line
	for _, a := range geometry.AngleLines(w, h, p.AngleCount) {
		rays = append(rays, a.Line)
	}
	var arcs []string
	for _, a := range geometry.Arcs(w, h, p.ArcCount, p.ArcRadiusInterval, p.MajorInterval) {
		arcs = append(arcs, a.Path)
	}

	return Scene{
		Name:   SceneCuttingMat,
		Width:  w,
		Height: h,
		Layers: []Layer{
			{Name: "minor", Opacity: p.Opacity / 2, StrokeWidth: p.StrokeWidth / 2, Lines: grid(minor)},
			{Name: "major", Opacity: p.Opacity, StrokeWidth: p.StrokeWidth, Lines: grid(p.MajorInterval)},
			{
				Name:        "ruler",
				Opacity:     p.Opacity,
				StrokeWidth: p.StrokeWidth,
				Lines:       append(ruler(geometry.EdgeTop, w, h), ruler(geometry.EdgeLeft, h, w)...),
			},
			{Name: "protractor", Opacity: p.Opacity, StrokeWidth: p.StrokeWidth, Lines: rays, Paths: arcs},
		},
	}
}

func fillFloat(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

func fillInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
