// Package config loads run configuration from YAML, .env files and the environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/logging"
	"commodity-momentum-lab/internal/optimizer"
)

// Environment overrides.
const (
	EnvPostgresDSN   = "CML_POSTGRES_DSN"
	EnvClickHouseDSN = "CML_CLICKHOUSE_DSN"
	EnvLogLevel      = "CML_LOG_LEVEL"
)

// Data controls how prices become returns.
type Data struct {
	Period         string `yaml:"period"`
	RemoveOutliers bool   `yaml:"remove_outliers"`
}

// Momentum configures the cross-sectional momentum run and its lookback comparison.
type Momentum struct {
	K                int     `yaml:"k"`
	Lookback         int     `yaml:"lookback"`
	CompareLookbacks []int   `yaml:"compare_lookbacks"`
	RiskFreeRate     float64 `yaml:"risk_free_rate"`
	PeriodsPerYear   float64 `yaml:"periods_per_year"` // 0 uses the data period default
}

// WindowSpec lists windows explicitly or as a [start, end) range with step.
type WindowSpec struct {
	Values []int `yaml:"values"`
	Start  int   `yaml:"start"`
	End    int   `yaml:"end"`
	Step   int   `yaml:"step"`
}

// Windows returns the explicit values, or the expanded range.
func (w WindowSpec) Windows() []int {
	if len(w.Values) > 0 {
		return append([]int(nil), w.Values...)
	}
	step := w.Step
	if step == 0 {
		step = 1
	}
	return optimizer.Range(w.Start, w.End, step)
}

// Crossover configures single-pair runs and grid searches.
type Crossover struct {
	Asset          string     `yaml:"asset"`
	Short          int        `yaml:"short"`
	Long           int        `yaml:"long"`
	Shorts         WindowSpec `yaml:"shorts"`
	Longs          WindowSpec `yaml:"longs"`
	TopN           int        `yaml:"top_n"`
	RiskFreeRate   float64    `yaml:"risk_free_rate"`
	PeriodsPerYear float64    `yaml:"periods_per_year"`
	Workers        int        `yaml:"workers"`
}

// Storage holds database DSNs.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

// Metrics configures the Prometheus textfile written at the end of a batch run.
type Metrics struct {
	TextfilePath string `yaml:"textfile_path"`
}

// Config is the complete run configuration.
type Config struct {
	Universe  []domain.Commodity `yaml:"universe"`
	Data      Data               `yaml:"data"`
	Momentum  Momentum           `yaml:"momentum"`
	Crossover Crossover          `yaml:"crossover"`
	Storage   Storage            `yaml:"storage"`
	Logging   logging.Config     `yaml:"logging"`
	Metrics   Metrics            `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Universe: domain.DefaultCommodities(),
		Data: Data{
			Period:         string(domain.PeriodMonthly),
			RemoveOutliers: true,
		},
		Momentum: Momentum{
			K:                4,
			Lookback:         12,
			CompareLookbacks: []int{3, 6, 12},
			RiskFreeRate:     0.02,
		},
		Crossover: Crossover{
			Shorts:         WindowSpec{Start: 1, End: 252, Step: 1},
			Longs:          WindowSpec{Start: 1, End: 252, Step: 1},
			TopN:           10,
			RiskFreeRate:   0.0175,
			PeriodsPerYear: 252,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults, then applies .env and environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	_ = godotenv.Load() // best-effort
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides DSNs and log level from the environment and expands
// ${VAR} references inside DSNs.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv(EnvClickHouseDSN); v != "" {
		c.Storage.ClickHouseDSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	c.Storage.PostgresDSN = os.ExpandEnv(c.Storage.PostgresDSN)
	c.Storage.ClickHouseDSN = os.ExpandEnv(c.Storage.ClickHouseDSN)
}

// Validate returns the first configuration error.
func (c *Config) Validate() error {
	if _, err := c.Period(); err != nil {
		return err
	}

	if c.Momentum.K < 1 {
		return fmt.Errorf("momentum.k: %w: %d", domain.ErrInvalidBucketSize, c.Momentum.K)
	}
	if c.Momentum.Lookback < 1 {
		return fmt.Errorf("momentum.lookback: %w: %d", domain.ErrInvalidWindow, c.Momentum.Lookback)
	}
	for _, x := range c.Momentum.CompareLookbacks {
		if x < 1 {
			return fmt.Errorf("momentum.compare_lookbacks: %w: %d", domain.ErrInvalidWindow, x)
		}
	}
	if c.Momentum.PeriodsPerYear < 0 || c.Crossover.PeriodsPerYear <= 0 {
		return fmt.Errorf("%w: periods_per_year must be positive", domain.ErrInvalidPeriod)
	}

	if c.Crossover.Short != 0 || c.Crossover.Long != 0 {
		if c.Crossover.Short < 1 || c.Crossover.Long < 1 {
			return fmt.Errorf("crossover: %w: short=%d long=%d", domain.ErrInvalidWindow, c.Crossover.Short, c.Crossover.Long)
		}
		if c.Crossover.Short >= c.Crossover.Long {
			return fmt.Errorf("crossover: %w: short=%d long=%d", domain.ErrInvalidWindowPair, c.Crossover.Short, c.Crossover.Long)
		}
	}
	for _, w := range append(c.Crossover.Shorts.Windows(), c.Crossover.Longs.Windows()...) {
		if w < 1 {
			return fmt.Errorf("crossover grid: %w: %d", domain.ErrInvalidWindow, w)
		}
	}

	seen := make(map[string]struct{}, len(c.Universe))
	for _, cm := range c.Universe {
		if cm.Name == "" || cm.Ticker == "" {
			return fmt.Errorf("universe: commodity name and ticker are required")
		}
		if _, ok := seen[cm.Name]; ok {
			return fmt.Errorf("universe: duplicate commodity %q", cm.Name)
		}
		seen[cm.Name] = struct{}{}
	}

	return c.Logging.Validate()
}

// Period returns the parsed return period.
func (c *Config) Period() (domain.Period, error) {
	return domain.ParsePeriod(c.Data.Period)
}

// MomentumParams resolves the momentum parameters, defaulting periods per year from the data period.
func (c *Config) MomentumParams() (domain.MomentumParams, error) {
	period, err := c.Period()
	if err != nil {
		return domain.MomentumParams{}, err
	}
	ppy := c.Momentum.PeriodsPerYear
	if ppy == 0 {
		ppy = period.PeriodsPerYear()
	}
	return domain.MomentumParams{
		K:              c.Momentum.K,
		Lookback:       c.Momentum.Lookback,
		RiskFreeRate:   c.Momentum.RiskFreeRate,
		PeriodsPerYear: ppy,
	}, nil
}

// CrossoverParams returns the single-pair parameters.
func (c *Config) CrossoverParams() domain.CrossoverParams {
	return domain.CrossoverParams{
		Short:          c.Crossover.Short,
		Long:           c.Crossover.Long,
		RiskFreeRate:   c.Crossover.RiskFreeRate,
		PeriodsPerYear: c.Crossover.PeriodsPerYear,
	}
}

// GridConfig returns the grid search configuration.
func (c *Config) GridConfig() optimizer.GridConfig {
	return optimizer.GridConfig{
		Shorts:         c.Crossover.Shorts.Windows(),
		Longs:          c.Crossover.Longs.Windows(),
		TopN:           c.Crossover.TopN,
		RiskFreeRate:   c.Crossover.RiskFreeRate,
		PeriodsPerYear: c.Crossover.PeriodsPerYear,
		Workers:        c.Crossover.Workers,
	}
}

// Assets returns the universe names in configured order.
func (c *Config) Assets() []string {
	names := make([]string, len(c.Universe))
	for i, cm := range c.Universe {
		names[i] = cm.Name
	}
	return names
}
