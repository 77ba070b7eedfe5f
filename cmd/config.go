package cmd

import (
	"time"

	"tracker-etl/internal/config"
	"tracker-etl/internal/transform"

	"github.com/spf13/viper"
)

// loadPipelineConfig loads and validates the sheet-processing spec named by
// the app config.
func loadPipelineConfig() (*config.Pipeline, string, error) {
	path := viper.GetString("pipeline_config")
	p, err := config.LoadPipeline(path, transform.RuleNames())
	return p, path, err
}

// loadTaxonomy loads the country taxonomy named by the app config.
func loadTaxonomy() (*config.Taxonomy, error) {
	return config.LoadTaxonomy(viper.GetString("taxonomy"))
}

// connectTimeout is the store connection-acquire timeout. Queries themselves
// are never timed out.
func connectTimeout() time.Duration {
	d, err := time.ParseDuration(viper.GetString("connect_timeout"))
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
