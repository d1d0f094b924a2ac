package vantage

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ViewerConfig tunes the interaction engine. Zero values fall back to the
// defaults below, so a partial YAML file is enough.
type ViewerConfig struct {
	// Camera
	MinDistance      float32 `yaml:"min_distance"`
	MaxDistance      float32 `yaml:"max_distance"`
	Damping          float32 `yaml:"damping"`
	FovDegrees       float32 `yaml:"fov_degrees"`
	OrbitSensitivity float32 `yaml:"orbit_sensitivity"`
	PanSensitivity   float32 `yaml:"pan_sensitivity"`
	ZoomSensitivity  float32 `yaml:"zoom_sensitivity"`
	WalkSpeed        float32 `yaml:"walk_speed"`

	// Picking
	HoverThrottleFrames int     `yaml:"hover_throttle_frames"`
	ClickSlopPixels     float32 `yaml:"click_slop_pixels"`
	PickRange           float32 `yaml:"pick_range"`

	// Synchronization
	PollInterval time.Duration `yaml:"-"`

	Debug bool `yaml:"debug"`
}

// UnmarshalYAML accepts poll_interval as a duration string ("250ms").
func (c *ViewerConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain ViewerConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	var aux struct {
		PollInterval string `yaml:"poll_interval"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	*c = ViewerConfig(p)
	if aux.PollInterval != "" {
		d, err := time.ParseDuration(aux.PollInterval)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		c.PollInterval = d
	}
	return nil
}

// DefaultConfig matches the original viewer's feel: isometric home view,
// soft damping, 100ms channel polling.
func DefaultConfig() ViewerConfig {
	return ViewerConfig{
		MinDistance:         1.0,
		MaxDistance:         500000.0,
		Damping:             0.92,
		FovDegrees:          45.0,
		OrbitSensitivity:    0.005,
		PanSensitivity:      0.01,
		ZoomSensitivity:     0.02,
		WalkSpeed:           500.0,
		HoverThrottleFrames: 3,
		ClickSlopPixels:     3.0,
		PickRange:           1e6,
		PollInterval:        100 * time.Millisecond,
	}
}

// LoadConfig reads a YAML config file, filling unset fields with
// defaults.
func LoadConfig(path string) (ViewerConfig, error) {
	cfg := ViewerConfig{}
	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (c ViewerConfig) withDefaults() ViewerConfig {
	def := DefaultConfig()
	if c.MinDistance <= 0 {
		c.MinDistance = def.MinDistance
	}
	if c.MaxDistance <= c.MinDistance {
		c.MaxDistance = def.MaxDistance
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		c.Damping = def.Damping
	}
	if c.FovDegrees <= 0 || c.FovDegrees >= 180 {
		c.FovDegrees = def.FovDegrees
	}
	if c.OrbitSensitivity <= 0 {
		c.OrbitSensitivity = def.OrbitSensitivity
	}
	if c.PanSensitivity <= 0 {
		c.PanSensitivity = def.PanSensitivity
	}
	if c.ZoomSensitivity <= 0 {
		c.ZoomSensitivity = def.ZoomSensitivity
	}
	if c.WalkSpeed <= 0 {
		c.WalkSpeed = def.WalkSpeed
	}
	if c.HoverThrottleFrames <= 0 {
		c.HoverThrottleFrames = def.HoverThrottleFrames
	}
	if c.ClickSlopPixels <= 0 {
		c.ClickSlopPixels = def.ClickSlopPixels
	}
	if c.PickRange <= 0 {
		c.PickRange = def.PickRange
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	return c
}
