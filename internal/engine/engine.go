// Package engine defines the generative hair-transfer capability and the
// session manager that owns exclusive access to it.
package engine

import (
	"context"
	"image"
)

// Params are the knobs forwarded to the engine for one transfer. Seed < 0
// means "fresh non-deterministic seed each call"; the session manager picks
// one before the engine ever sees the params.
type Params struct {
	Seed                        int64   `yaml:"seed"`
	Steps                       int     `yaml:"steps"`
	GuidanceScale               float64 `yaml:"guidance_scale"`
	Scale                       float64 `yaml:"scale"`
	ControlNetConditioningScale float64 `yaml:"controlnet_conditioning_scale"`
	ConverterScale              float64 `yaml:"converter_scale"`
}

// Engine composites a reference hairstyle onto a source portrait. It returns
// the bald-scalp intermediate and the final composited image. Implementations
// are NOT safe for concurrent use; all access goes through the Session.
type Engine interface {
	Transfer(ctx context.Context, source, reference image.Image, params Params) (bald, result image.Image, err error)
	Close() error
}
