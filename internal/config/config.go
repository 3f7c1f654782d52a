package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	// HMACSecret verifies the identity token minted by the session
	// service. This engine never mints tokens itself.
	HMACSecret string `yaml:"hmac_secret"`
}

type EntitlementConfig struct {
	// Timezone is the canonical zone for day/month rollover keys.
	Timezone         string `yaml:"timezone"`
	PassingScore     int    `yaml:"passing_score"`
	SubscriptionDays int    `yaml:"subscription_days"`
}

type SchedulerConfig struct {
	ExpiryInterval   time.Duration `yaml:"expiry_interval"`
	ReplayInterval   time.Duration `yaml:"replay_interval"`
	ReplayStaleAfter time.Duration `yaml:"replay_stale_after"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Entitlement EntitlementConfig `yaml:"entitlement"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 15 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Entitlement.Timezone == "" {
		cfg.Entitlement.Timezone = "UTC"
	}
	if cfg.Entitlement.PassingScore <= 0 {
		cfg.Entitlement.PassingScore = 70
	}
	if cfg.Entitlement.SubscriptionDays <= 0 {
		cfg.Entitlement.SubscriptionDays = 30
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Hour
	}
	if cfg.Scheduler.ReplayInterval <= 0 {
		cfg.Scheduler.ReplayInterval = time.Minute
	}
	if cfg.Scheduler.ReplayStaleAfter <= 0 {
		cfg.Scheduler.ReplayStaleAfter = 10 * time.Minute
	}
	if cfg.RateLimit.PerMinute <= 0 {
		cfg.RateLimit.PerMinute = 60
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.HMACSecret == "" {
		return nil, errors.New("auth.hmac_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
