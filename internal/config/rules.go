package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules are the engine-wide combat constants. Attack tiers are decided by how
// far a d100 roll plus accuracy clears the defense.
type Rules struct {
	BaseAP    int `yaml:"base_ap"`
	DisplayAP int `yaml:"display_ap"`

	GrazePercentile int `yaml:"graze_percentile"`
	HitPercentile   int `yaml:"hit_percentile"`
	CritPercentile  int `yaml:"crit_percentile"`
}

// DefaultRules returns the rules used when no rules file is configured
func DefaultRules() *Rules {
	return &Rules{
		BaseAP:          100,
		DisplayAP:       10,
		GrazePercentile: 15,
		HitPercentile:   50,
		CritPercentile:  95,
	}
}

// Validate checks the tier thresholds are ordered
func (r *Rules) Validate() error {
	if r.BaseAP <= 0 {
		return fmt.Errorf("base_ap must be positive, got %d", r.BaseAP)
	}
	if r.DisplayAP <= 0 {
		return fmt.Errorf("display_ap must be positive, got %d", r.DisplayAP)
	}
	if r.GrazePercentile < 0 {
		return fmt.Errorf("graze_percentile must not be negative, got %d", r.GrazePercentile)
	}
	if r.GrazePercentile >= r.HitPercentile || r.HitPercentile >= r.CritPercentile {
		return fmt.Errorf("percentiles must be strictly increasing: graze=%d hit=%d crit=%d",
			r.GrazePercentile, r.HitPercentile, r.CritPercentile)
	}
	return nil
}

// LoadRules reads rules from a YAML file. Fields missing from the file keep
// their default values.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}

	return rules, nil
}
