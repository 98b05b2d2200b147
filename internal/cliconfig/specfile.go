package cliconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/scopekit/acquire/pkg/acquire"
)

// SpecFile is the TOML representation of an acquisition spec.
//
// Example:
//
//	camera   = "cam0"
//	exposure = "20ms"
//
//	[[axis]]
//	name   = "time"
//	values = [0, 1, 2]
//
//	[[axis]]
//	name   = "channel"
//	labels = ["DAPI", "FITC"]
//
//	[[axis]]
//	name     = "z"
//	relative = true
//	values   = [0.0, 0.5, 0.5]
type SpecFile struct {
	Camera   string         `toml:"camera"`
	Exposure string         `toml:"exposure"`
	Axis     []SpecFileAxis `toml:"axis"`
}

// SpecFileAxis is one axis declaration in a spec file. Exactly one of
// Values or Labels must be set.
type SpecFileAxis struct {
	Name     string    `toml:"name"`
	Relative bool      `toml:"relative"`
	Values   []float64 `toml:"values"`
	Labels   []string  `toml:"labels"`
}

// LoadSpecFile reads a TOML acquisition spec from path and converts it
// to the engine's public form. Structural errors (bad TOML, an axis with
// both values and labels) are reported here; semantic validation is left
// to the engine.
func LoadSpecFile(path string) (acquire.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return acquire.Spec{}, fmt.Errorf("failed to read spec file %s: %w", path, err)
	}

	var sf SpecFile
	if err := toml.Unmarshal(data, &sf); err != nil {
		return acquire.Spec{}, fmt.Errorf("failed to parse spec file %s: %w", path, err)
	}

	return sf.ToSpec()
}

// ToSpec converts the file form to an acquisition spec.
func (sf SpecFile) ToSpec() (acquire.Spec, error) {
	spec := acquire.Spec{Camera: sf.Camera}

	if sf.Exposure != "" {
		d, err := time.ParseDuration(sf.Exposure)
		if err != nil {
			return acquire.Spec{}, fmt.Errorf("invalid exposure %q: %w", sf.Exposure, err)
		}
		spec.Exposure = d
	}

	for _, ax := range sf.Axis {
		if len(ax.Values) > 0 && len(ax.Labels) > 0 {
			return acquire.Spec{}, fmt.Errorf("axis %q declares both values and labels", ax.Name)
		}
		axis := acquire.Axis{Name: ax.Name, Relative: ax.Relative}
		if len(ax.Labels) > 0 {
			axis.Values = acquire.Labels(ax.Labels...)
		} else {
			axis.Values = acquire.Numbers(ax.Values...)
		}
		spec.Axes = append(spec.Axes, axis)
	}

	return spec, nil
}
