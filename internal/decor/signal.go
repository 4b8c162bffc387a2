package decor

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/atelier/internal/geometry"
)

// Channel encodings.
const (
	EncodingText = "text"
	EncodingHex  = "hex"
	EncodingBits = "bits"
)

const maxChannelBits = 1024

// Channel is one trace of the signal analyzer.
type Channel struct {
	Label string `json:"label" yaml:"label"`
	// Value is interpreted according to Encoding.
	Value    string `json:"value" yaml:"value"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

// Bits returns the channel's bit string.
func (c Channel) Bits() string {
	switch c.Encoding {
	case EncodingHex:
		return geometry.HexToBinary(c.Value)
	case EncodingBits:
		return c.Value
	default:
		return geometry.StringToBinary(c.Value)
	}
}

// SignalParams configures the digital signal analyzer.
type SignalParams struct {
	Channels    []Channel `json:"channels" yaml:"channels"`
	GridSize    float64   `json:"grid_size" yaml:"grid_size"`
	RowHeight   float64   `json:"row_height" yaml:"row_height"`
	Padding     float64   `json:"padding" yaml:"padding"`
	LabelWidth  float64   `json:"label_width" yaml:"label_width"`
	Opacity     float64   `json:"opacity" yaml:"opacity"`
	StrokeWidth float64   `json:"stroke_width" yaml:"stroke_width"`
}

// DefaultSignal returns the parameters used in the site footer.
func DefaultSignal() SignalParams {
	return SignalParams{
		Channels: []Channel{
			{Label: "TX", Value: "hello", Encoding: EncodingText},
			{Label: "CLK", Value: "aa", Encoding: EncodingHex},
		},
		GridSize:    12,
		RowHeight:   48,
		Padding:     10,
		LabelWidth:  48,
		Opacity:     0.6,
		StrokeWidth: 1.5,
	}
}

// Normalize fills zero fields from defaults. Channels are only taken from
// defaults when none are given.
func (p SignalParams) Normalize(defaults SignalParams) SignalParams {
	if len(p.Channels) == 0 {
		p.Channels = append([]Channel(nil), defaults.Channels...)
	}
	fillFloat(&p.GridSize, defaults.GridSize)
	fillFloat(&p.RowHeight, defaults.RowHeight)
	fillFloat(&p.Padding, defaults.Padding)
	fillFloat(&p.LabelWidth, defaults.LabelWidth)
	fillFloat(&p.Opacity, defaults.Opacity)
	fillFloat(&p.StrokeWidth, defaults.StrokeWidth)
	return p
}

// Validate bounds the parameters.
func (p SignalParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Channels, validation.Length(0, 16)),
		validation.Field(&p.GridSize, validation.Required, validation.Min(1.0)),
		validation.Field(&p.RowHeight, validation.Required, validation.Min(4.0)),
		validation.Field(&p.Padding, validation.Min(0.0)),
		validation.Field(&p.LabelWidth, validation.Min(0.0)),
		validation.Field(&p.Opacity, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&p.StrokeWidth, validation.Min(0.0)),
	); err != nil {
		return err
	}
	if p.Padding*2 >= p.RowHeight {
		return errors.New("padding: must be less than half the row height")
	}
	for i, c := range p.Channels {
		if err := validation.Validate(c.Encoding, validation.In("", EncodingText, EncodingHex, EncodingBits)); err != nil {
			return fmt.Errorf("channels[%d].encoding: %w", i, err)
		}
		if n := len(c.Bits()); n > maxChannelBits {
			return fmt.Errorf("channels[%d]: %d bits exceeds %d", i, n, maxChannelBits)
		}
	}
	return nil
}

// SignalAnalyzer builds the analyzer scene. Every channel gets a row band;
// its trace sits Padding inside the band, high level on top. Traces start
// after a gutter of LabelWidth holding the channel label.
func SignalAnalyzer(p SignalParams) Scene {
	maxBits := 0
	bits := make([]string, len(p.Channels))
	for i, c := range p.Channels {
		bits[i] = c.Bits()
		maxBits = max(maxBits, len(bits[i]))
	}

	traceWidth := float64(maxBits) * p.GridSize
	width := p.LabelWidth + traceWidth
	height := float64(len(p.Channels)) * p.RowHeight

	traces := make([]string, len(p.Channels))
	labels := make([]Label, len(p.Channels))
	for i, c := range p.Channels {
		top := float64(i) * p.RowHeight
		traces[i] = geometry.SquareWavePath(bits[i], top+p.Padding, top+p.RowHeight-p.Padding, p.GridSize)
		labels[i] = Label{X: 0, Y: top + p.RowHeight/2, Text: c.Label}
	}

	// Cell boundaries across the trace area, row separators across all.
	var grid []geometry.Line
	for _, x := range geometry.GridLines(traceWidth, p.GridSize) {
		grid = append(grid, geometry.Line{X1: x, Y1: 0, X2: x, Y2: height})
	}
	for _, y := range geometry.GridLines(height, p.RowHeight) {
		grid = append(grid, geometry.Line{X1: -p.LabelWidth, Y1: y, X2: traceWidth, Y2: y})
	}

	return Scene{
		Name:   SceneSignal,
		Width:  width,
		Height: height,
		Layers: []Layer{
			{Name: "grid", Opacity: p.Opacity / 3, StrokeWidth: p.StrokeWidth / 2, OffsetX: p.LabelWidth, Lines: grid},
			{Name: "traces", Opacity: p.Opacity, StrokeWidth: p.StrokeWidth, OffsetX: p.LabelWidth, Paths: traces},
			{Name: "labels", Opacity: p.Opacity, Labels: labels},
		},
	}
}
