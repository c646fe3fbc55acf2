// Package config loads gamemodel-ai settings from defaults, an optional YAML
// file and GAMEMODEL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "GAMEMODEL"

type Config struct {
	MaxTreeDepth            int           `mapstructure:"max_tree_depth"`
	MaxProposalAttempts     int           `mapstructure:"max_proposal_attempts"`
	ProbabilitySumTolerance float64       `mapstructure:"probability_sum_tolerance"`
	ScreenTimeout           time.Duration `mapstructure:"screen_timeout"`
	ProposeTimeout          time.Duration `mapstructure:"propose_timeout"`

	LLM    LLMConfig    `mapstructure:"llm"`
	Store  StoreConfig  `mapstructure:"store"`
	Notify NotifyConfig `mapstructure:"notify"`
	Server ServerConfig `mapstructure:"server"`
}

type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type StoreConfig struct {
	// Backend is one of none, memory, redis, postgres.
	Backend     string        `mapstructure:"backend"`
	RedisURL    string        `mapstructure:"redis_url"`
	TTL         time.Duration `mapstructure:"ttl"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
}

type NotifyConfig struct {
	MQTTURL string `mapstructure:"mqtt_url"`
	Topic   string `mapstructure:"topic"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_tree_depth", 5)
	v.SetDefault("max_proposal_attempts", 3)
	v.SetDefault("probability_sum_tolerance", 1e-6)
	v.SetDefault("screen_timeout", 60*time.Second)
	v.SetDefault("propose_timeout", 120*time.Second)
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("store.backend", "none")
	v.SetDefault("store.redis_url", "localhost:6379")
	v.SetDefault("store.ttl", 24*time.Hour)
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("notify.mqtt_url", "")
	v.SetDefault("notify.topic", "gamemodel/outcomes")
	v.SetDefault("server.addr", ":8080")
}

// Default returns the built-in configuration, ignoring config files and
// the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// The built-in defaults always decode into Config.
		panic(err)
	}
	return &cfg
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxTreeDepth <= 0 {
		errs = append(errs, fmt.Errorf("max_tree_depth must be positive, got %d", c.MaxTreeDepth))
	}
	if c.MaxProposalAttempts <= 0 {
		errs = append(errs, fmt.Errorf("max_proposal_attempts must be positive, got %d", c.MaxProposalAttempts))
	}
	if c.ProbabilitySumTolerance <= 0 {
		errs = append(errs, fmt.Errorf("probability_sum_tolerance must be positive, got %g", c.ProbabilitySumTolerance))
	}
	if c.ScreenTimeout <= 0 || c.ProposeTimeout <= 0 {
		errs = append(errs, errors.New("screen_timeout and propose_timeout must be positive"))
	}
	switch c.Store.Backend {
	case "", "none", "memory", "redis", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported store.backend %q (supported: none, memory, redis, postgres)", c.Store.Backend))
	}
	return errors.Join(errs...)
}
