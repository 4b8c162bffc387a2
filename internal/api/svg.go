package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/atelier/internal/apperr"
	"github.com/starford/atelier/internal/checksum"
	"github.com/starford/atelier/internal/decor"
	"github.com/starford/atelier/internal/svg"
)

const svgCacheControl = "public, max-age=300"

// colorRule accepts hex colours and CSS colour keywords.
var colorRule = validation.Match(regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20})$`))

// SVGHandler renders the decorative scenes. Query parameters override the
// configured presets.
type SVGHandler struct {
	presets decor.Presets
}

// NewSVGHandler creates a handler over the given presets.
func NewSVGHandler(presets decor.Presets) *SVGHandler {
	return &SVGHandler{presets: presets.Normalize()}
}

// Serve handles GET /svg/{name}.svg.
func (h *SVGHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(chi.URLParam(r, "file"), ".svg")
	if !slices.Contains(decor.SceneNames, name) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	q := r.URL.Query()

	presets, err := applySceneQuery(h.presets, name, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scene, err := presets.Build(name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	opts := svg.DefaultOptions()
	if stroke := q.Get("stroke"); stroke != "" {
		if err := validation.Validate(stroke, colorRule); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("stroke: "+err.Error()))
			return
		}
		opts.Stroke = stroke
	}
	opts.Class = q.Get("class")

	body, err := svg.Marshal(scene, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", svgCacheControl)
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

// etagMatch implements the weak comparison If-None-Match asks for.
func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// applySceneQuery copies the query overrides for one scene into presets.
func applySceneQuery(p decor.Presets, name string, q url.Values) (decor.Presets, error) {
	var err error
	switch name {
	case decor.SceneCuttingMat:
		c := &p.CuttingMat
		err = firstErr(
			queryFloat(q, "width", &c.Width),
			queryFloat(q, "height", &c.Height),
			queryFloat(q, "major_interval", &c.MajorInterval),
			queryInt(q, "ratio", &c.Ratio),
			queryInt(q, "arc_count", &c.ArcCount),
			queryFloat(q, "arc_radius_interval", &c.ArcRadiusInterval),
			queryInt(q, "angle_count", &c.AngleCount),
			queryFloat(q, "opacity", &c.Opacity),
			queryFloat(q, "stroke_width", &c.StrokeWidth),
		)
	case decor.ScenePowerGrid:
		g := &p.PowerGrid
		err = firstErr(
			queryFloat(q, "width", &g.Width),
			queryFloat(q, "height", &g.Height),
			queryFloat(q, "grid_size", &g.GridSize),
			queryInt(q, "node_every", &g.NodeEvery),
			queryFloat(q, "node_radius", &g.NodeRadius),
			queryFloat(q, "opacity", &g.Opacity),
			queryFloat(q, "stroke_width", &g.StrokeWidth),
		)
	case decor.SceneSignal:
		s := &p.Signal
		err = firstErr(
			queryFloat(q, "grid_size", &s.GridSize),
			queryFloat(q, "row_height", &s.RowHeight),
			queryFloat(q, "padding", &s.Padding),
			queryFloat(q, "label_width", &s.LabelWidth),
			queryFloat(q, "opacity", &s.Opacity),
			queryFloat(q, "stroke_width", &s.StrokeWidth),
		)
		if err == nil && len(q["channel"]) > 0 {
			s.Channels, err = parseChannels(q["channel"])
		}
	}
	return p, err
}

// parseChannels reads "label:encoding:value" triples. The value may
// itself contain colons.
func parseChannels(raw []string) ([]decor.Channel, error) {
	out := make([]decor.Channel, 0, len(raw))
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: channel %q: want label:encoding:value", apperr.ErrInvalidInput, s)
		}
		out = append(out, decor.Channel{Label: parts[0], Encoding: parts[1], Value: parts[2]})
	}
	return out, nil
}

func queryFloat(q url.Values, key string, dst *float64) error {
	raw := q.Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s: not a number", apperr.ErrInvalidInput, key)
	}
	*dst = v
	return nil
}

func queryInt(q url.Values, key string, dst *int) error {
	raw := q.Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: not an integer", apperr.ErrInvalidInput, key)
	}
	*dst = v
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
