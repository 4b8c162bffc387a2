package decor

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/atelier/internal/apperr"
)

// Scene names, also used as SVG file stems.
const (
	SceneCuttingMat = "cutting-mat"
	ScenePowerGrid  = "power-grid"
	SceneSignal     = "signal"
)

// SceneNames lists every scene Build knows.
var SceneNames = []string{SceneCuttingMat, ScenePowerGrid, SceneSignal}

// Presets holds the configured parameters of every scene.
type Presets struct {
	CuttingMat CuttingMatParams `json:"cutting_mat" yaml:"cutting_mat"`
	PowerGrid  PowerGridParams  `json:"power_grid" yaml:"power_grid"`
	Signal     SignalParams     `json:"signal" yaml:"signal"`
}

// DefaultPresets returns the built-in parameters of every scene.
func DefaultPresets() Presets {
	return Presets{
		CuttingMat: DefaultCuttingMat(),
		PowerGrid:  DefaultPowerGrid(),
		Signal:     DefaultSignal(),
	}
}

// Normalize fills unset values from the built-in defaults.
func (p Presets) Normalize() Presets {
	p.CuttingMat = p.CuttingMat.Normalize(DefaultCuttingMat())
	p.PowerGrid = p.PowerGrid.Normalize(DefaultPowerGrid())
	p.Signal = p.Signal.Normalize(DefaultSignal())
	return p
}

// Validate checks every scene's parameters.
func (p Presets) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.CuttingMat),
		validation.Field(&p.PowerGrid),
		validation.Field(&p.Signal),
	)
}

// Build validates the named scene's parameters and builds it.
func (p Presets) Build(name string) (Scene, error) {
	var (
		v     validation.Validatable
		build func() Scene
	)
	switch name {
	case SceneCuttingMat:
		v, build = p.CuttingMat, func() Scene { return CuttingMat(p.CuttingMat) }
	case ScenePowerGrid:
		v, build = p.PowerGrid, func() Scene { return PowerGrid(p.PowerGrid) }
	case SceneSignal:
		v, build = p.Signal, func() Scene { return SignalAnalyzer(p.Signal) }
	default:
		return Scene{}, fmt.Errorf("%w: unknown scene %q", apperr.ErrInvalidInput, name)
	}
	if err := v.Validate(); err != nil {
		return Scene{}, fmt.Errorf("%w: %s: %w", apperr.ErrInvalidInput, name, err)
	}
	return build(), nil
}
