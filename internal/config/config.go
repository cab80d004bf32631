// Package config assembles runtime settings: built-in defaults, then an
// optional YAML file, then environment variables (which win). A .env file in
// the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/wordle/engine/internal/game"
)

// Development values of the secrets. Production refuses to start with them.
const (
	devJWTSecret = "dev_secret_change_me"
	devDailySalt = "local_dev_salt"
)

// ErrInsecureProduction is returned by Validate when production mode runs
// with a missing or development secret.
var ErrInsecureProduction = errors.New("insecure production config")

// Config holds every tunable of the server and the terminal game.
type Config struct {
	Port         string `yaml:"port"`
	LogLevel     string `yaml:"log_level"`
	DBPath       string `yaml:"db_path"`
	WordsFile    string `yaml:"words_file"`
	MaxAttempts  int    `yaml:"max_attempts"`
	StrictWords  bool   `yaml:"strict_words"`
	DailySalt    string `yaml:"daily_salt"`
	ClientOrigin string `yaml:"client_origin"`
	Production   bool   `yaml:"production"`

	// SessionIdle is how long a live game may go unused before it is dropped.
	SessionIdle time.Duration `yaml:"session_idle"`

	JWTSecret      string `yaml:"jwt_secret"`
	JWTExpiresDays int    `yaml:"jwt_expires_days"`
	CookieName     string `yaml:"cookie_name"`
}

// Default returns the development defaults.
func Default() *Config {
	return &Config{
		Port:           "5175",
		LogLevel:       "info",
		DBPath:         "./data/wordle.db",
		MaxAttempts:    game.DefaultMaxAttempts,
		DailySalt:      devDailySalt,
		ClientOrigin:   "http://localhost:5173",
		JWTSecret:      devJWTSecret,
		JWTExpiresDays: 14,
		CookieName:     "wordle_token",
		SessionIdle:    24 * time.Hour,
	}
}

// Load builds a Config. path names a YAML file; an empty path falls back to
// $WORDLE_CONFIG, and a missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("WORDLE_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("DB_PATH", &c.DBPath)
	str("WORDS_FILE", &c.WordsFile)
	str("DAILY_SALT", &c.DailySalt)
	str("CLIENT_ORIGIN", &c.ClientOrigin)
	str("JWT_SECRET", &c.JWTSecret)
	str("COOKIE_NAME", &c.CookieName)

	if v := os.Getenv("MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: MAX_ATTEMPTS: %w", err)
		}
		c.MaxAttempts = n
	}
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: JWT_EXPIRES_DAYS: %w", err)
		}
		c.JWTExpiresDays = n
	}
	if v := os.Getenv("STRICT_WORDS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: STRICT_WORDS: %w", err)
		}
		c.StrictWords = b
	}
	if v := os.Getenv("SESSION_IDLE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: SESSION_IDLE: %w", err)
		}
		c.SessionIdle = d
	}
	if strings.EqualFold(os.Getenv("NODE_ENV"), "production") {
		c.Production = true
	}
	return nil
}

// Validate rejects settings no game can be built with, and production
// settings that still carry development secrets.
func (c *Config) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("config: max_attempts=%d: %w", c.MaxAttempts, game.ErrInvalidConfig)
	}
	if c.JWTExpiresDays <= 0 {
		return fmt.Errorf("config: jwt_expires_days must be positive, got %d", c.JWTExpiresDays)
	}
	if c.SessionIdle <= 0 {
		return fmt.Errorf("config: session_idle must be positive, got %s", c.SessionIdle)
	}
	if c.Production {
		if c.JWTSecret == "" || c.JWTSecret == devJWTSecret {
			return fmt.Errorf("config: JWT_SECRET must be set in production: %w", ErrInsecureProduction)
		}
		if c.DailySalt == "" || c.DailySalt == devDailySalt {
			return fmt.Errorf("config: DAILY_SALT must be set in production: %w", ErrInsecureProduction)
		}
	}
	return nil
}

// TokenTTL is the lifetime of issued auth tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}
