package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const paramsPathEnv = "ENGINE_PARAMS_PATH"

// DefaultParams mirror the values the model was tuned with.
func DefaultParams() Params {
	return Params{
		Seed:                        -1,
		Steps:                       30,
		GuidanceScale:               1.3,
		Scale:                       1,
		ControlNetConditioningScale: 1,
		ConverterScale:              1,
	}
}

// LoadParams reads transfer parameters from the YAML file named by
// ENGINE_PARAMS_PATH. No file configured means defaults; a configured but
// unreadable or invalid file is an error, not a silent fallback.
func LoadParams() (Params, error) {
	p := DefaultParams()

	path := strings.TrimSpace(os.Getenv(paramsPathEnv))
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("engine params: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("engine params: %w", err)
	}

	if p.Steps <= 0 {
		return p, fmt.Errorf("engine params: steps must be positive, got %d", p.Steps)
	}
	if p.GuidanceScale <= 0 {
		return p, fmt.Errorf("engine params: guidance_scale must be positive, got %v", p.GuidanceScale)
	}
	return p, nil
}
