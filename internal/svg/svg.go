// Package svg serializes decor scenes to standalone SVG documents.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/starford/atelier/internal/decor"
)

const namespace = "http://www.w3.org/2000/svg"

// Options controls presentation attributes that are not part of a scene.
type Options struct {
	// Stroke is the colour used for lines, paths and dots.
	Stroke string
	// Class is set on the root element when non-empty.
	Class string
}

// DefaultOptions draws with currentColor so the page's CSS decides the colour.
func DefaultOptions() Options {
	return Options{Stroke: "currentColor"}
}

type document struct {
	XMLName             xml.Name `xml:"svg"`
	Xmlns               string   `xml:"xmlns,attr"`
	ViewBox             string   `xml:"viewBox,attr"`
	Width               string   `xml:"width,attr"`
	Height              string   `xml:"height,attr"`
	Class               string   `xml:"class,attr,omitempty"`
	PreserveAspectRatio string   `xml:"preserveAspectRatio,attr"`
	AriaHidden          string   `xml:"aria-hidden,attr"`
	Groups              []group  `xml:"g"`
}

type group struct {
	ID          string   `xml:"id,attr,omitempty"`
	Opacity     string   `xml:"opacity,attr"`
	Stroke      string   `xml:"stroke,attr"`
	StrokeWidth string   `xml:"stroke-width,attr"`
	Fill        string   `xml:"fill,attr"`
	Transform   string   `xml:"transform,attr,omitempty"`
	Lines       []line   `xml:"line"`
	Paths       []path   `xml:"path"`
	Circles     []circle `xml:"circle"`
	Texts       []text   `xml:"text"`
}

type line struct {
	X1 string `xml:"x1,attr"`
	Y1 string `xml:"y1,attr"`
	X2 string `xml:"x2,attr"`
	Y2 string `xml:"y2,attr"`
}

type path struct {
	D string `xml:"d,attr"`
}

type circle struct {
	CX   string `xml:"cx,attr"`
	CY   string `xml:"cy,attr"`
	R    string `xml:"r,attr"`
	Fill string `xml:"fill,attr"`
}

type text struct {
	X                string `xml:"x,attr"`
	Y                string `xml:"y,attr"`
	Fill             string `xml:"fill,attr"`
	DominantBaseline string `xml:"dominant-baseline,attr"`
	Value            string `xml:",chardata"`
}

// Write encodes scene as an SVG document to w.
func Write(w io.Writer, scene decor.Scene, opts Options) error {
	if opts.Stroke == "" {
		opts.Stroke = DefaultOptions().Stroke
	}

	doc := document{
		Xmlns:               namespace,
		ViewBox:             fmt.Sprintf("0 0 %s %s", num(scene.Width), num(scene.Height)),
		Width:               num(scene.Width),
		Height:              num(scene.Height),
		Class:               opts.Class,
		PreserveAspectRatio: "xMidYMid slice",
		AriaHidden:          "true",
		Groups:              make([]group, 0, len(scene.Layers)),
	}
	for _, l := range scene.Layers {
		doc.Groups = append(doc.Groups, buildGroup(scene.Name, l, opts))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("svg: write header: %w", err)
	}
	enc := xml.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("svg: encode %s: %w", scene.Name, err)
	}
	return enc.Close()
}

// Marshal returns the SVG document for scene.
func Marshal(scene decor.Scene, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, scene, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildGroup(sceneName string, l decor.Layer, opts Options) group {
	g := group{
		Opacity:     num(l.Opacity),
		Stroke:      opts.Stroke,
		StrokeWidth: num(l.StrokeWidth),
		Fill:        "none",
	}
	if l.Name != "" {
		g.ID = sceneName + "-" + l.Name
	}
	if l.OffsetX != 0 {
		g.Transform = "translate(" + num(l.OffsetX) + " 0)"
	}
	for _, ln := range l.Lines {
		g.Lines = append(g.Lines, line{X1: num(ln.X1), Y1: num(ln.Y1), X2: num(ln.X2), Y2: num(ln.Y2)})
	}
	for _, d := range l.Paths {
		g.Paths = append(g.Paths, path{D: d})
	}
	for _, c := range l.Circles {
		g.Circles = append(g.Circles, circle{CX: num(c.CX), CY: num(c.CY), R: num(c.R), Fill: opts.Stroke})
	}
	for _, t := range l.Labels {
		g.Texts = append(g.Texts, text{
			X:                num(t.X),
			Y:                num(t.Y),
			Fill:             opts.Stroke,
			DominantBaseline: "middle",
			Value:            t.Text,
		})
	}
	return g
}

func num(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
