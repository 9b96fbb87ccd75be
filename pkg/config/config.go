package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Database: a postgres:// URL, or a sqlite file path
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Simulation
	DefaultRuns       int           `mapstructure:"DEFAULT_RUNS"`
	MaxRuns           int           `mapstructure:"MAX_RUNS"`
	SimulationWorkers int           `mapstructure:"SIMULATION_WORKERS"`
	MaxWorkers        int           `mapstructure:"MAX_WORKERS"`
	ResultCacheTTL    time.Duration `mapstructure:"RESULT_CACHE_TTL"`

	// Odds provider
	OddsAPIKey              string        `mapstructure:"ODDS_API_KEY"`
	OddsAPIURL              string        `mapstructure:"ODDS_API_URL"`
	OddsSportKey            string        `mapstructure:"ODDS_SPORT_KEY"`
	OddsRegions             string        `mapstructure:"ODDS_REGIONS"`
	OddsRateLimitPerMinute  int           `mapstructure:"ODDS_RATE_LIMIT_PER_MINUTE"`
	OddsRefreshSchedule     string        `mapstructure:"ODDS_REFRESH_SCHEDULE"`
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`

	// Feature Flags
	EnableBackgroundJobs bool `mapstructure:"ENABLE_BACKGROUND_JOBS"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATABASE_URL", "tournament_sim.db")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("DEFAULT_RUNS", 20000)
	v.SetDefault("MAX_RUNS", 1000000)
	v.SetDefault("SIMULATION_WORKERS", 1)
	v.SetDefault("MAX_WORKERS", runtime.NumCPU())
	v.SetDefault("RESULT_CACHE_TTL", "30m")
	v.SetDefault("ODDS_API_KEY", "")
	v.SetDefault("ODDS_API_URL", "https://api.the-odds-api.com/v4")
	v.SetDefault("ODDS_SPORT_KEY", "soccer_fifa_world_cup_winner")
	v.SetDefault("ODDS_REGIONS", "us")
	v.SetDefault("ODDS_RATE_LIMIT_PER_MINUTE", 5)
	v.SetDefault("ODDS_REFRESH_SCHEDULE", "@every 6h")
	v.SetDefault("EXTERNAL_API_TIMEOUT", "10s")
	v.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)
	v.SetDefault("ENABLE_BACKGROUND_JOBS", false)
	v.SetDefault("LOG_LEVEL", "")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	if corsStr := v.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the simulator cannot run with.
func (c *Config) Validate() error {
	if c.DefaultRuns <= 0 {
		return fmt.Errorf("DEFAULT_RUNS must be positive, got %d", c.DefaultRuns)
	}
	if c.MaxRuns < c.DefaultRuns {
		return fmt.Errorf("MAX_RUNS (%d) is below DEFAULT_RUNS (%d)", c.MaxRuns, c.DefaultRuns)
	}
	if c.SimulationWorkers < 1 {
		return fmt.Errorf("SIMULATION_WORKERS must be at least 1, got %d", c.SimulationWorkers)
	}
	if c.MaxWorkers < c.SimulationWorkers {
		return fmt.Errorf("MAX_WORKERS (%d) is below SIMULATION_WORKERS (%d)", c.MaxWorkers, c.SimulationWorkers)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
