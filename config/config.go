// Package config loads the particle solver's tunable constants
// (spec.md §6) from YAML, with compiled-in defaults.
//
// Grounded on pthm-soup/config/config.go's //go:embed + yaml.v3
// pattern.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Definition holds every definition-time tunable spec.md §6 lists.
// Field names mirror the spec's own vocabulary rather than the YAML
// key spelling; yaml tags carry the on-disk snake_case names.
type Definition struct {
	Radius       float64 `yaml:"radius"`
	Density      float64 `yaml:"density"`
	GravityScale float64 `yaml:"gravity_scale"`
	Damping      float64 `yaml:"damping"`
	QuadraticDamping float64 `yaml:"quadratic_damping"`
	ViscousStrength  float64 `yaml:"viscous_strength"`

	MinParticleBufferCapacity int     `yaml:"min_buffer_capacity"`
	MinParticleWeight         float64 `yaml:"min_particle_weight"`
	MaxParticlePressure       float64 `yaml:"max_particle_pressure"`
	MaxParticleForce          float64 `yaml:"max_particle_force"`
	ParticleStride            float64 `yaml:"particle_stride"`
	MaxTriadDistanceSquared   float64 `yaml:"max_triad_distance_squared"`
	BarrierCollisionTime      float64 `yaml:"barrier_collision_time"`
	LinearSlop                float64 `yaml:"linear_slop"`

	StaticPressureIterations  int     `yaml:"static_pressure_iterations"`
	StaticPressureStrength    float64 `yaml:"static_pressure_strength"`
	StaticPressureRelaxation  float64 `yaml:"static_pressure_relaxation"`
	PressureStrength          float64 `yaml:"pressure_strength"`
	NormalStrength            float64 `yaml:"normal_strength"`
	PowderStrength            float64 `yaml:"powder_strength"`
	EjectionStrength          float64 `yaml:"ejection_strength"`
	SpringStrength            float64 `yaml:"spring_strength"`
	ElasticStrength           float64 `yaml:"elastic_strength"`
	ColorMixingStrength       float64 `yaml:"color_mixing_strength"`

	MaxCount           int  `yaml:"max_count"`
	StrictContactCheck bool `yaml:"strict_contact_check"`
}

// Default returns the compiled-in tunable set.
func Default() *Definition {
	d := &Definition{}
	if err := yaml.Unmarshal(defaultsYAML, d); err != nil {
		// The embedded file is part of the binary; a parse failure here
		// is a build-time programmer error, not a runtime condition.
		panic(fmt.Sprintf("config: invalid embedded defaults.yaml: %v", err))
	}
	return d
}

// Load reads a Definition from path on top of Default(), so any field
// the file leaves unset keeps its default value.
func Load(path string) (*Definition, error) {
	d := Default()
	if err := LoadInto(path, d); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadInto reads path and merges its fields into d.
func LoadInto(path string, d *Definition) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, d); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// WriteYAML serializes d to path, useful for recording the exact
// tunables a run used alongside its diagnostics output.
func (d *Definition) WriteYAML(path string) error {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("config: marshaling definition: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// CriticalVelocity returns diameter * inv_dt, the velocity clamp used
// by limitVelocity (spec.md §4.4/GLOSSARY).
func (d *Definition) CriticalVelocity(invDt float64) float64 {
	return 2 * d.Radius * invDt
}
