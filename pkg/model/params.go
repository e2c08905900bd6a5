package model

import (
	"fmt"
	"math"

	"github.com/BurntSushi/toml"
)

// Params holds every tunable of the layout engine and the pixel-space
// display mapping. All fields are plain values so a Params can be copied,
// serialized, and diffed; [DefaultParams] is the single source of the
// defaults and TOML files overlay it field by field.
type Params struct {
	// Iterations is the number of relaxation iterations per layout run.
	Iterations int `toml:"iterations"`

	// IDWExponent is the inverse-distance weighting exponent of the node
	// repulsion term. Larger values localize the repulsion.
	IDWExponent float64 `toml:"idw_exponent"`

	// MinFlowLengthSpringConstant is the spring stiffness of very short
	// flows; MaxFlowLengthSpringConstant that of the single longest flow
	// in the model. Stiffness interpolates linearly in between, scaled by
	// each flow's length relative to the longest.
	MinFlowLengthSpringConstant float64 `toml:"min_flow_length_spring_constant"`
	MaxFlowLengthSpringConstant float64 `toml:"max_flow_length_spring_constant"`

	// AntiTorsionWeight scales the correction pulling the control point
	// back toward the baseline normal through its midpoint, suppressing
	// S-shaped torsion.
	AntiTorsionWeight float64 `toml:"anti_torsion_weight"`

	// PeripheralStiffnessFactor stiffens flows whose nodes sit near the
	// canvas periphery; 0 disables the effect.
	PeripheralStiffnessFactor float64 `toml:"peripheral_stiffness_factor"`

	// ConstantCooling disables the 1-i/N cooling schedule and applies
	// ConstantCoolingWeight on every iteration. Debugging aid.
	ConstantCooling       bool    `toml:"constant_cooling"`
	ConstantCoolingWeight float64 `toml:"constant_cooling_weight"`

	// EnforceRangebox clamps control points into the oriented range box
	// over each flow's baseline; RangeboxHeightFraction sizes the box
	// height as a fraction of the baseline length.
	EnforceRangebox        bool    `toml:"enforce_rangebox"`
	RangeboxHeightFraction float64 `toml:"rangebox_height_fraction"`

	// EnforceCanvas clamps control points into the padded canvas;
	// CanvasPaddingFraction is the headroom beyond the map extent as a
	// fraction of the canvas's shorter side.
	EnforceCanvas         bool    `toml:"enforce_canvas"`
	CanvasPaddingFraction float64 `toml:"canvas_padding_fraction"`

	// MoveFlowsFraction is the fraction of total iterations after which
	// the one-time move-flows-off-obstacles correction runs.
	MoveFlowsFraction float64 `toml:"move_flows_fraction"`

	// MinObstacleGapPx is the minimum separation between a flow band and
	// an obstacle disc, in pixels.
	MinObstacleGapPx float64 `toml:"min_obstacle_gap_px"`

	// Overlap-reducing shortening search.
	ShorteningStepPx               float64 `toml:"shortening_step_px"`
	ConsecutiveStepsWithoutOverlap int     `toml:"consecutive_steps_without_overlap"`
	MaxShorteningFraction          float64 `toml:"max_shortening_fraction"`
	MinFlowLengthPx                float64 `toml:"min_flow_length_px"`

	// Arrowheads.
	DrawArrowheads   bool    `toml:"draw_arrowheads"`
	ArrowLengthRatio float64 `toml:"arrow_length_ratio"`
	ArrowWidthRatio  float64 `toml:"arrow_width_ratio"`

	// Pixel-space display mapping.
	MaxStrokeWidthPx  float64 `toml:"max_stroke_width_px"`
	MinStrokeWidthPx  float64 `toml:"min_stroke_width_px"`
	MaxNodeRadiusPx   float64 `toml:"max_node_radius_px"`
	MinNodeRadiusPx   float64 `toml:"min_node_radius_px"`
	ReferenceMapScale float64 `toml:"reference_map_scale"`
}

// DefaultParams returns the standard parameter set. The spring and
// stiffness constants match the tuning the engine was verified against;
// change them through a TOML file rather than in code.
func DefaultParams() Params {
	return Params{
		Iterations:                  100,
		IDWExponent:                 2,
		MinFlowLengthSpringConstant: 0.5,
		MaxFlowLengthSpringConstant: 0.05,
		AntiTorsionWeight:           0.8,
		PeripheralStiffnessFactor:   0.5,
		ConstantCoolingWeight:       0.5,

		EnforceRangebox:        true,
		RangeboxHeightFraction: 0.3,
		EnforceCanvas:          true,
		CanvasPaddingFraction:  0.15,

		MoveFlowsFraction: 0.1,
		MinObstacleGapPx:  5,

		ShorteningStepPx:               1,
		ConsecutiveStepsWithoutOverlap: 3,
		MaxShorteningFraction:          1.0 / 3.0,
		MinFlowLengthPx:                10,

		DrawArrowheads:   true,
		ArrowLengthRatio: 2.5,
		ArrowWidthRatio:  0.9,

		MaxStrokeWidthPx:  20,
		MinStrokeWidthPx:  0.5,
		MaxNodeRadiusPx:   10,
		MinNodeRadiusPx:   1,
		ReferenceMapScale: 1,
	}
}

// LoadParams reads a TOML parameter file over the defaults: fields absent
// from the file keep their default values.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Params{}, fmt.Errorf("load params %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("params %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the parameter ranges the engine depends on.
func (p Params) Validate() error {
	switch {
	case p.Iterations <= 0:
		return fmt.Errorf("iterations must be positive, got %d", p.Iterations)
	case p.IDWExponent <= 0 || math.IsNaN(p.IDWExponent):
		return fmt.Errorf("idw_exponent must be positive, got %v", p.IDWExponent)
	case p.RangeboxHeightFraction <= 0:
		return fmt.Errorf("rangebox_height_fraction must be positive, got %v", p.RangeboxHeightFraction)
	case p.CanvasPaddingFraction < 0:
		return fmt.Errorf("canvas_padding_fraction must not be negative, got %v", p.CanvasPaddingFraction)
	case p.MoveFlowsFraction < 0 || p.MoveFlowsFraction > 1:
		return fmt.Errorf("move_flows_fraction must be in [0,1], got %v", p.MoveFlowsFraction)
	case p.ShorteningStepPx <= 0:
		return fmt.Errorf("shortening_step_px must be positive, got %v", p.ShorteningStepPx)
	case p.ConsecutiveStepsWithoutOverlap <= 0:
		return fmt.Errorf("consecutive_steps_without_overlap must be positive, got %d", p.ConsecutiveStepsWithoutOverlap)
	case p.MaxShorteningFraction <= 0 || p.MaxShorteningFraction > 1:
		return fmt.Errorf("max_shortening_fraction must be in (0,1], got %v", p.MaxShorteningFraction)
	}
	return nil
}
