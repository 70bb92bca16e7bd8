package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds every knob the pipeline reads: file locations, metric
// constants, forecast parameters, and the optional Postgres target.
// Risk weights live here so every view scores with the same constants.
type Config struct {
	DataDir         string  `mapstructure:"DATA_DIR"`
	OutputPath      string  `mapstructure:"OUTPUT_PATH"`
	ParquetPath     string  `mapstructure:"PARQUET_PATH"`
	FinalMergedPath string  `mapstructure:"FINAL_MERGED_PATH"`
	ModelPath       string  `mapstructure:"MODEL_PATH"`
	ReportDir       string  `mapstructure:"REPORT_DIR"`
	DatabaseURL     string  `mapstructure:"DATABASE_URL"`
	LoadBatchSize   int     `mapstructure:"LOAD_BATCH_SIZE"`
	ZScoreThreshold float64 `mapstructure:"ZSCORE_THRESHOLD"`
	RiskDiabetesW   float64 `mapstructure:"RISK_DIABETES_WEIGHT"`
	RiskDialysisW   float64 `mapstructure:"RISK_DIALYSIS_WEIGHT"`
	ForecastHorizon int     `mapstructure:"FORECAST_HORIZON"`
	ForecastMinHist int     `mapstructure:"FORECAST_MIN_HISTORY"`
	ForecastTrees   int     `mapstructure:"FORECAST_TREES"`
	TopRiskN        int     `mapstructure:"TOP_RISK_N"`
}

// Load builds the config from defaults, an optional claimsight.env file
// in the working directory, and CLAIMSIGHT_-prefixed environment
// variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile("claimsight.env")
	v.SetConfigType("env")
	v.SetEnvPrefix("CLAIMSIGHT")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("OUTPUT_PATH", "")
	v.SetDefault("PARQUET_PATH", "")
	v.SetDefault("FINAL_MERGED_PATH", "")
	v.SetDefault("MODEL_PATH", "models/cost_model.json")
	v.SetDefault("REPORT_DIR", "reports")
	v.SetDefault("LOAD_BATCH_SIZE", 5000)
	v.SetDefault("ZSCORE_THRESHOLD", 3.0)
	v.SetDefault("RISK_DIABETES_WEIGHT", 0.5)
	v.SetDefault("RISK_DIALYSIS_WEIGHT", 0.8)
	v.SetDefault("FORECAST_HORIZON", 12)
	v.SetDefault("FORECAST_MIN_HISTORY", 6)
	v.SetDefault("FORECAST_TREES", 200)
	v.SetDefault("TOP_RISK_N", 20)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("DATA_DIR")
	v.BindEnv("OUTPUT_PATH")
	v.BindEnv("PARQUET_PATH")
	v.BindEnv("FINAL_MERGED_PATH")
	v.BindEnv("MODEL_PATH")
	v.BindEnv("REPORT_DIR")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("LOAD_BATCH_SIZE")
	v.BindEnv("ZSCORE_THRESHOLD")
	v.BindEnv("RISK_DIABETES_WEIGHT")
	v.BindEnv("RISK_DIALYSIS_WEIGHT")
	v.BindEnv("FORECAST_HORIZON")
	v.BindEnv("FORECAST_MIN_HISTORY")
	v.BindEnv("FORECAST_TREES")
	v.BindEnv("TOP_RISK_N")

	// Try reading the config file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(cfg.DataDir, "cleaned_claims_full.csv")
	}
	if cfg.FinalMergedPath == "" {
		cfg.FinalMergedPath = filepath.Join(cfg.DataDir, "final_merged.csv")
	}

	return cfg, nil
}

// InputPath resolves one of the six raw extracts inside DataDir.
func (c *Config) InputPath(name string) string {
	return filepath.Join(c.DataDir, name)
}
