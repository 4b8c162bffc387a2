package decor

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/atelier/internal/apperr"
	"github.com/starford/atelier/internal/geometry"
)

func TestCuttingMatLayers(t *testing.T) {
	p := DefaultCuttingMat()
	s := CuttingMat(p)

	if s.Name != "cutting-mat" || s.Width != 1200 || s.Height != 800 {
		t.Fatalf("unexpected scene header: %+v", s)
	}
	for _, name := range []string{"minor", "major", "ruler", "protractor"} {
		if _, ok := s.Layer(name); !ok {
			t.Errorf("missing layer %q", name)
		}
	}

	major, _ := s.Layer("major")
	wantMajor := len(geometry.HorizontalLines(1200, 800, 50)) + len(geometry.VerticalLines(1200, 800, 50))
	if len(major.Lines) != wantMajor {
		t.Errorf("major lines = %d, want %d", len(major.Lines), wantMajor)
	}

	minor, _ := s.Layer("minor")
	if len(minor.Lines) <= len(major.Lines) {
		t.Errorf("minor grid should be denser: %d <= %d", len(minor.Lines), len(major.Lines))
	}
	if minor.Opacity != p.Opacity/2 {
		t.Errorf("minor opacity = %v", minor.Opacity)
	}

	proto, _ := s.Layer("protractor")
	if len(proto.Lines) != p.AngleCount {
		t.Errorf("rays = %d, want %d", len(proto.Lines), p.AngleCount)
	}
	if len(proto.Paths) != p.ArcCount {
		t.Errorf("arcs = %d, want %d", len(proto.Paths), p.ArcCount)
	}
}

func TestCuttingMatZeroCounts(t *testing.T) {
	p := DefaultCuttingMat()
	p.ArcCount = 0
	p.AngleCount = 0

	proto, _ := CuttingMat(p).Layer("protractor")
	if len(proto.Lines) != 0 || len(proto.Paths) != 0 {
		t.Fatalf("expected empty protractor, got %d rays %d arcs", len(proto.Lines), len(proto.Paths))
	}
}

func TestCuttingMatNormalizeAndValidate(t *testing.T) {
	p := CuttingMatParams{Width: 640}.Normalize(DefaultCuttingMat())
	if p.Width != 640 || p.Height != 800 || p.Ratio != 5 {
		t.Fatalf("normalize: %+v", p)
	}
	if p.ArcCount != 0 {
		t.Errorf("normalize should not fill counts, got %d", p.ArcCount)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	bad := DefaultCuttingMat()
	bad.Width = maxCanvas * 2
	if err := bad.Validate(); err == nil {
		t.Error("expected error for oversized canvas")
	}
	bad = DefaultCuttingMat()
	bad.MajorInterval = 1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for tiny interval")
	}
	bad = DefaultCuttingMat()
	bad.MajorInterval = 4
	bad.Ratio = 20
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "minor interval") {
		t.Errorf("expected minor interval error, got %v", err)
	}
	bad.Ratio = 2
	if err := bad.Validate(); err != nil {
		t.Errorf("minor interval of exactly 2 should pass: %v", err)
	}
	bad = DefaultCuttingMat()
	bad.Opacity = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("expected error for opacity > 1")
	}
}

func TestMinorInterval(t *testing.T) {
	if got := (CuttingMatParams{MajorInterval: 50, Ratio: 5}).MinorInterval(); got != 10 {
		t.Errorf("got %v, want 10", got)
	}
	if got := (CuttingMatParams{MajorInterval: 50}).MinorInterval(); got != 50 {
		t.Errorf("zero ratio: got %v, want 50", got)
	}
}

func TestPowerGridNodes(t *testing.T) {
	p := PowerGridParams{Width: 200, Height: 130, GridSize: 20, NodeEvery: 2, NodeRadius: 2, Opacity: 0.5, StrokeWidth: 1}
	s := PowerGrid(p)

	rails, _ := s.Layer("rails")
	drops, _ := s.Layer("drops")
	nodes, _ := s.Layer("nodes")

	// 130/20 -> 6 rails, 200/20-1 -> 9 drops.
	if len(rails.Lines) != 6 {
		t.Fatalf("rails = %d, want 6", len(rails.Lines))
	}
	if len(drops.Lines) != 9 {
		t.Fatalf("drops = %d, want 9", len(drops.Lines))
	}
	// every second rail (3) times every second drop (5)
	if len(nodes.Circles) != 15 {
		t.Fatalf("nodes = %d, want 15", len(nodes.Circles))
	}

	first := nodes.Circles[0]
	if first.CX != drops.Lines[0].X1 || first.CY != rails.Lines[0].Y1 || first.R != 2 {
		t.Errorf("first node misplaced: %+v", first)
	}
}

func TestPowerGridNoNodes(t *testing.T) {
	p := DefaultPowerGrid()
	p.NodeRadius = 0
	nodes, _ := PowerGrid(p).Layer("nodes")
	if len(nodes.Circles) != 0 {
		t.Errorf("expected no nodes, got %d", len(nodes.Circles))
	}
}

func TestPowerGridValidate(t *testing.T) {
	if err := DefaultPowerGrid().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	p := DefaultPowerGrid()
	p.GridSize = 0
	if err := p.Validate(); err == nil {
		t.Error("expected error for zero grid size")
	}
}

func TestChannelBits(t *testing.T) {
	tests := []struct {
		ch   Channel
		want string
	}{
		{Channel{Value: "A"}, "01000001"},
		{Channel{Value: "A", Encoding: EncodingText}, "01000001"},
		{Channel{Value: "f0", Encoding: EncodingHex}, "11110000"},
		{Channel{Value: "101", Encoding: EncodingBits}, "101"},
	}
	for _, tt := range tests {
		if got := tt.ch.Bits(); got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.ch, got, tt.want)
		}
	}
}

func TestSignalAnalyzerRows(t *testing.T) {
	p := SignalParams{
		Channels: []Channel{
			{Label: "A", Value: "101", Encoding: EncodingBits},
			{Label: "B", Value: "1", Encoding: EncodingBits},
		},
		GridSize:    20,
		RowHeight:   40,
		Padding:     10,
		LabelWidth:  30,
		Opacity:     0.6,
		StrokeWidth: 1,
	}
	s := SignalAnalyzer(p)

	if s.Width != 30+3*20 {
		t.Errorf("width = %v, want 90", s.Width)
	}
	if s.Height != 80 {
		t.Errorf("height = %v, want 80", s.Height)
	}

	traces, _ := s.Layer("traces")
	if traces.OffsetX != 30 {
		t.Errorf("trace offset = %v, want 30", traces.OffsetX)
	}
	want0 := geometry.SquareWavePath("101", 10, 30, 20)
	if traces.Paths[0] != want0 {
		t.Errorf("trace 0 = %q, want %q", traces.Paths[0], want0)
	}
	// second row band starts at 40
	want1 := geometry.SquareWavePath("1", 50, 70, 20)
	if traces.Paths[1] != want1 {
		t.Errorf("trace 1 = %q, want %q", traces.Paths[1], want1)
	}

	labels, _ := s.Layer("labels")
	if len(labels.Labels) != 2 || labels.Labels[1].Text != "B" || labels.Labels[1].Y != 60 {
		t.Errorf("labels = %+v", labels.Labels)
	}
}

func TestSignalDecodeRoundTrip(t *testing.T) {
	p := DefaultSignal()
	s := SignalAnalyzer(p)
	traces, _ := s.Layer("traces")

	for i, ch := range p.Channels {
		top := float64(i) * p.RowHeight
		got := geometry.DecodeSquareWave(traces.Paths[i], top+p.Padding, top+p.RowHeight-p.Padding, p.GridSize)
		if got != ch.Bits() {
			t.Errorf("channel %s: decoded %q, want %q", ch.Label, got, ch.Bits())
		}
		if ch.Encoding == EncodingText && geometry.BinaryToString(got) != ch.Value {
			t.Errorf("channel %s: text %q", ch.Label, geometry.BinaryToString(got))
		}
	}
}

func TestSignalValidate(t *testing.T) {
	if err := DefaultSignal().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	p := DefaultSignal()
	p.Padding = p.RowHeight / 2
	if err := p.Validate(); err == nil {
		t.Error("expected error for padding filling the row")
	}

	p = DefaultSignal()
	p.Channels = []Channel{{Label: "X", Value: "1", Encoding: "morse"}}
	if err := p.Validate(); err == nil || !strings.Contains(err.Error(), "channels[0]") {
		t.Errorf("expected encoding error, got %v", err)
	}

	p = DefaultSignal()
	p.Channels = []Channel{{Label: "X", Value: strings.Repeat("a", 200)}}
	if err := p.Validate(); err == nil {
		t.Error("expected error for overlong channel")
	}
}

func TestSignalNormalizeKeepsChannels(t *testing.T) {
	own := []Channel{{Label: "Z", Value: "1", Encoding: EncodingBits}}
	p := SignalParams{Channels: own}.Normalize(DefaultSignal())
	if len(p.Channels) != 1 || p.Channels[0].Label != "Z" {
		t.Errorf("channels replaced: %+v", p.Channels)
	}
	p = SignalParams{}.Normalize(DefaultSignal())
	if len(p.Channels) != len(DefaultSignal().Channels) {
		t.Errorf("default channels not applied")
	}
}

func TestPrimitives(t *testing.T) {
	s := Scene{Layers: []Layer{
		{Lines: make([]geometry.Line, 2), Paths: []string{"M 0 0"}},
		{Circles: make([]Circle, 3), Labels: []Label{{Text: "x"}}},
	}}
	if got := s.Primitives(); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestPresets_Build(t *testing.T) {
	p := DefaultPresets()
	for _, name := range SceneNames {
		s, err := p.Build(name)
		if err != nil {
			t.Fatalf("Build(%s): %v", name, err)
		}
		if s.Name != name || s.Primitives() == 0 {
			t.Errorf("Build(%s) = %s with %d primitives", name, s.Name, s.Primitives())
		}
	}

	if _, err := p.Build("tartan"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("unknown scene err = %v", err)
	}

	p.PowerGrid.GridSize = 1
	if _, err := p.Build(ScenePowerGrid); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("invalid params err = %v", err)
	}
	if err := p.Validate(); err == nil {
		t.Error("Validate should report the power grid")
	}
}

func TestPresets_Normalize(t *testing.T) {
	p := Presets{PowerGrid: PowerGridParams{GridSize: 25}}.Normalize()
	if p.PowerGrid.GridSize != 25 || p.PowerGrid.Width != DefaultPowerGrid().Width {
		t.Errorf("power grid = %+v", p.PowerGrid)
	}
	if p.CuttingMat.MajorInterval != DefaultCuttingMat().MajorInterval {
		t.Errorf("cutting mat not filled: %+v", p.CuttingMat)
	}
	if len(p.Signal.Channels) != len(DefaultSignal().Channels) {
		t.Errorf("signal channels = %+v", p.Signal.Channels)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("normalized presets invalid: %v", err)
	}
}
