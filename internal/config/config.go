package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig      `yaml:"store" mapstructure:"store"`
	Portfolio PortfolioConfig  `yaml:"portfolio" mapstructure:"portfolio"`
	Policy    ValidationPolicy `yaml:"policy" mapstructure:"policy"`
	Benchmark BenchmarkConfig  `yaml:"benchmark" mapstructure:"benchmark"`
	Engine    EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PortfolioConfig locates the property/unit configuration table.
type PortfolioConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Sheet string `yaml:"sheet" mapstructure:"sheet"` // XLSX sheet name, ignored for YAML
}

// ValidationPolicy holds the confidence deductions, tier thresholds, and
// tolerance bands of the validation engine. These are policy parameters, not
// physical constants; defaults match the observed billing data.
type ValidationPolicy struct {
	CriticalDeduction  float64 `yaml:"critical_deduction" mapstructure:"critical_deduction"`
	TypeDeduction      float64 `yaml:"type_deduction" mapstructure:"type_deduction"`
	RangeDeduction     float64 `yaml:"range_deduction" mapstructure:"range_deduction"`
	SoftRangeDeduction float64 `yaml:"soft_range_deduction" mapstructure:"soft_range_deduction"`
	CrossDeduction     float64 `yaml:"cross_deduction" mapstructure:"cross_deduction"`
	SoftCrossDeduction float64 `yaml:"soft_cross_deduction" mapstructure:"soft_cross_deduction"`
	OutlierDeduction   float64 `yaml:"outlier_deduction" mapstructure:"outlier_deduction"`

	ManualThreshold float64 `yaml:"manual_threshold" mapstructure:"manual_threshold"` // below -> manual
	AutoThreshold   float64 `yaml:"auto_threshold" mapstructure:"auto_threshold"`     // at or above -> auto_accept

	WarnTolerancePct  float64 `yaml:"warn_tolerance_pct" mapstructure:"warn_tolerance_pct"`   // cross-field pass band
	ErrorTolerancePct float64 `yaml:"error_tolerance_pct" mapstructure:"error_tolerance_pct"` // cross-field warning band

	MaxAmountDue float64 `yaml:"max_amount_due" mapstructure:"max_amount_due"`
	MinCPD       float64 `yaml:"min_cpd" mapstructure:"min_cpd"`
	MaxCPD       float64 `yaml:"max_cpd" mapstructure:"max_cpd"`

	OutlierZScore   float64 `yaml:"outlier_z_score" mapstructure:"outlier_z_score"`
	MinOutlierPeers int     `yaml:"min_outlier_peers" mapstructure:"min_outlier_peers"`
}

// BenchmarkConfig holds the yards-per-door benchmark bands for garden-style
// multifamily properties.
type BenchmarkConfig struct {
	ExcellentMax float64 `yaml:"excellent_max" mapstructure:"excellent_max"`
	TargetMax    float64 `yaml:"target_max" mapstructure:"target_max"`
}

// EngineConfig configures batch processing.
type EngineConfig struct {
	MaxConcurrentRecords  int     `yaml:"max_concurrent_records" mapstructure:"max_concurrent_records"`
	ReconcileToleranceUSD float64 `yaml:"reconcile_tolerance_usd" mapstructure:"reconcile_tolerance_usd"`
}

// ServerConfig configures the results API server.
type ServerConfig struct {
	Port          int     `yaml:"port" mapstructure:"port"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WASTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "waste-analytics.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("engine.max_concurrent_records", 8)
	v.SetDefault("engine.reconcile_tolerance_usd", 1.00)
	v.SetDefault("policy.critical_deduction", 0.30)
	v.SetDefault("policy.type_deduction", 0.15)
	v.SetDefault("policy.range_deduction", 0.15)
	v.SetDefault("policy.soft_range_deduction", 0.05)
	v.SetDefault("policy.cross_deduction", 0.15)
	v.SetDefault("policy.soft_cross_deduction", 0.05)
	v.SetDefault("policy.outlier_deduction", 0.05)
	v.SetDefault("policy.manual_threshold", 0.70)
	v.SetDefault("policy.auto_threshold", 0.85)
	v.SetDefault("policy.warn_tolerance_pct", 5.0)
	v.SetDefault("policy.error_tolerance_pct", 10.0)
	v.SetDefault("policy.max_amount_due", 100_000)
	v.SetDefault("policy.min_cpd", 1.0)
	v.SetDefault("policy.max_cpd", 100.0)
	v.SetDefault("policy.outlier_z_score", 2.0)
	v.SetDefault("policy.min_outlier_peers", 3)
	v.SetDefault("benchmark.excellent_max", 2.0)
	v.SetDefault("benchmark.target_max", 2.5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
