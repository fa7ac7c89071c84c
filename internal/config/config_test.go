package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	v := viper.New()
	cfg, err := Load(v, "")
	require.NoError(t, err)
	require.Equal(t, Defaults().DefaultFiringThreshold, cfg.DefaultFiringThreshold)
	require.Equal(t, Defaults().CompetitionRadius, cfg.CompetitionRadius)
}

func TestLoadRejectsInvalidDecayRate(t *testing.T) {
	v := viper.New()
	v.Set("default_decay_rate", 1.5)
	_, err := Load(v, "")
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveCompetitionRadius(t *testing.T) {
	v := viper.New()
	v.Set("competition_radius", 0)
	_, err := Load(v, "")
	require.Error(t, err)
}

func TestLoadHonorsExplicitOverride(t *testing.T) {
	v := viper.New()
	v.Set("system_gene_count", 8)
	cfg, err := Load(v, "")
	require.NoError(t, err)
	require.Equal(t, 8, cfg.SystemGeneCount)
}
