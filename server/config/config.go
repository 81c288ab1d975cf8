// Package config reads the process environment (optionally seeded from a
// .env file) and the YAML strategy profile.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"holdem-autopilot/server/bankroll"
	"holdem-autopilot/server/strategy"
)

type Config struct {
	DatabaseURL     string
	Port            string
	AutoMigrate     bool
	LogLevel        log.Level
	LogFormat       string
	RNGSeed         int64
	StartingBalance int64
	BigBlind        int64
	SelfplayHands   int
	// SelfplayWinProb is the hero's assumed match win probability used to
	// size the self-play stake.
	SelfplayWinProb float64
	Profile         Profile
	// Opponent is the profile the self-play challenger runs with.
	Opponent Profile
}

// Profile tunes the strategy engine and bankroll manager.
type Profile struct {
	Strategy strategy.Config `yaml:",inline"`
	Bankroll bankroll.Config `yaml:",inline"`
	// Workers is the Monte Carlo worker count; zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

func DefaultProfile() Profile {
	return Profile{
		Strategy: strategy.DefaultConfig(),
		Bankroll: bankroll.DefaultConfig(),
		Workers:  runtime.GOMAXPROCS(0),
	}
}

func (p Profile) Validate() error {
	if err := p.Strategy.Validate(); err != nil {
		return err
	}
	if err := p.Bankroll.Validate(); err != nil {
		return err
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", p.Workers)
	}
	return nil
}

// LoadProfile overlays the YAML file at path on the defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	lvl, err := log.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	format := strings.ToLower(getenv("LOG_FORMAT", "text"))
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", format)
	}
	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Port:            getenv("PORT", "8080"),
		AutoMigrate:     asBool(os.Getenv("AUTO_MIGRATE")),
		LogLevel:        lvl,
		LogFormat:       format,
		RNGSeed:         atoi64Def(os.Getenv("RNG_SEED"), 0),
		StartingBalance: atoi64Def(os.Getenv("STARTING_BALANCE"), 10000),
		BigBlind:        atoi64Def(os.Getenv("BIG_BLIND"), 100),
		SelfplayHands:   int(atoi64Def(os.Getenv("SELFPLAY_HANDS"), 200)),
		SelfplayWinProb: atofDef(os.Getenv("SELFPLAY_WIN_PROB"), 0.55),
		Profile:         DefaultProfile(),
		Opponent:        DefaultProfile(),
	}
	if cfg.BigBlind < 2 {
		return nil, fmt.Errorf("BIG_BLIND must be at least 2, got %d", cfg.BigBlind)
	}
	if cfg.SelfplayWinProb < 0 || cfg.SelfplayWinProb > 1 {
		return nil, fmt.Errorf("SELFPLAY_WIN_PROB must be in [0,1], got %g", cfg.SelfplayWinProb)
	}
	if path := os.Getenv("STRATEGY_PROFILE"); path != "" {
		if cfg.Profile, err = LoadProfile(path); err != nil {
			return nil, err
		}
	}
	if path := os.Getenv("OPPONENT_PROFILE"); path != "" {
		if cfg.Opponent, err = LoadProfile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Logger builds a logrus logger with the configured level and format.
func (c *Config) Logger() *log.Logger {
	l := log.New()
	l.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return l
}

func (c *Config) SmallBlind() int64 { return c.BigBlind / 2 }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi64Def(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func atofDef(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
