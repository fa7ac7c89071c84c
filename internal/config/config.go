// Package config defines HidraConfig and its viper-backed loader, the
// way the teacher's types.NetworkConfig groups tunables but, unlike the
// teacher, is meant to be populated from a file/env/flags stack rather
// than constructed as a literal.
package config

import (
	"github.com/hidra-sim/hidra/internal/herr"
	"github.com/spf13/viper"
)

// HidraConfig is every recognized, effectful option a world is built
// from.
type HidraConfig struct {
	DefaultFiringThreshold  float64 `mapstructure:"default_firing_threshold"`
	DefaultDecayRate        float64 `mapstructure:"default_decay_rate"`
	DefaultRefractoryPeriod float64 `mapstructure:"default_refractory_period"`

	MetabolicTaxPerTick float64 `mapstructure:"metabolic_tax_per_tick"`
	CompetitionRadius   float64 `mapstructure:"competition_radius"`

	Seed0            uint64 `mapstructure:"seed0"`
	Seed1            uint64 `mapstructure:"seed1"`
	AutoReseedPerRun bool   `mapstructure:"auto_reseed_per_run"`
	ExperimentID     string `mapstructure:"experiment_id"`

	SystemGeneCount int `mapstructure:"system_gene_count"`

	MetricsEnabled          bool    `mapstructure:"metrics_enabled"`
	MetricsRingCapacity     int     `mapstructure:"metrics_ring_capacity"`
	MetricsNeuronSampleRate float64 `mapstructure:"metrics_neuron_sample_rate"`
	MetricsLVarIndices      []int   `mapstructure:"metrics_lvar_indices"`
	MetricsIncludeSynapses  bool    `mapstructure:"metrics_include_synapses"`
	MetricsIncludeIO        bool    `mapstructure:"metrics_include_io"`

	// DebugStrict makes the event queue panic on underflow instead of
	// logging and dropping; set for development builds, left off in
	// production runs.
	DebugStrict bool `mapstructure:"debug_strict"`
}

// Defaults returns the configuration every new world falls back to
// before a file/env/flag layer overrides it.
func Defaults() HidraConfig {
	return HidraConfig{
		DefaultFiringThreshold:  1.0,
		DefaultDecayRate:        0.9,
		DefaultRefractoryPeriod: 3,
		MetabolicTaxPerTick:     0.001,
		CompetitionRadius:       5.0,
		AutoReseedPerRun:        false,
		SystemGeneCount:         4,
		MetricsEnabled:          false,
		MetricsRingCapacity:     1000,
		MetricsNeuronSampleRate: 1.0,
		MetricsIncludeSynapses:  false,
		MetricsIncludeIO:        true,
		DebugStrict:             false,
	}
}

// Load builds a HidraConfig from Defaults layered with a config file (if
// path is non-empty), environment variables prefixed HIDRA_, and
// whatever v already has bound (typically cobra flags bound by the
// caller before Load runs).
func Load(v *viper.Viper, path string) (HidraConfig, error) {
	defaults := Defaults()
	v.SetDefault("default_firing_threshold", defaults.DefaultFiringThreshold)
	v.SetDefault("default_decay_rate", defaults.DefaultDecayRate)
	v.SetDefault("default_refractory_period", defaults.DefaultRefractoryPeriod)
	v.SetDefault("metabolic_tax_per_tick", defaults.MetabolicTaxPerTick)
	v.SetDefault("competition_radius", defaults.CompetitionRadius)
	v.SetDefault("auto_reseed_per_run", defaults.AutoReseedPerRun)
	v.SetDefault("system_gene_count", defaults.SystemGeneCount)
	v.SetDefault("metrics_enabled", defaults.MetricsEnabled)
	v.SetDefault("metrics_ring_capacity", defaults.MetricsRingCapacity)
	v.SetDefault("metrics_neuron_sample_rate", defaults.MetricsNeuronSampleRate)
	v.SetDefault("metrics_include_synapses", defaults.MetricsIncludeSynapses)
	v.SetDefault("metrics_include_io", defaults.MetricsIncludeIO)
	v.SetDefault("debug_strict", defaults.DebugStrict)

	v.SetEnvPrefix("HIDRA")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return HidraConfig{}, herr.Wrapf(herr.KindConfiguration, err, "reading config file %s", path)
		}
	}

	var cfg HidraConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return HidraConfig{}, herr.Wrapf(herr.KindConfiguration, err, "binding configuration")
	}
	return cfg, validate(cfg)
}

// Validate checks cfg's invariants directly, for callers (such as
// snapshot restoration) that receive a HidraConfig from somewhere other
// than Load and still need the same checks applied.
func (cfg HidraConfig) Validate() error {
	return validate(cfg)
}

func validate(cfg HidraConfig) error {
	if cfg.DefaultDecayRate <= 0 || cfg.DefaultDecayRate > 1 {
		return herr.Argument("default_decay_rate must be in (0, 1], got %v", cfg.DefaultDecayRate)
	}
	if cfg.CompetitionRadius <= 0 {
		return herr.Argument("competition_radius must be positive, got %v", cfg.CompetitionRadius)
	}
	if cfg.SystemGeneCount < 1 {
		return herr.Argument("system_gene_count must be at least 1, got %v", cfg.SystemGeneCount)
	}
	if cfg.MetricsRingCapacity < 0 {
		return herr.Argument("metrics_ring_capacity must be non-negative, got %v", cfg.MetricsRingCapacity)
	}
	return nil
}
