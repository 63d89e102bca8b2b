// internal/config/config.go
//
// Runtime configuration for the solver binaries.
// Responsibilities:
//   - Load .env (godotenv), an optional YAML file (CONFIG_FILE) and environment variables.
//   - Apply defaults; precedence is defaults < YAML < environment.
//   - Configure the global zerolog logger.
//
// Keys:
//
//	PORT, LOG_LEVEL, LOG_PRETTY, CLIENT_ORIGIN,
//	WORDS_DB, WORDS_GUESSES_FILE, WORDS_SOLUTIONS_FILE, PATTERN_TABLE,
//	TOKEN_SECRET, TOKEN_TTL, SESSION_IDLE,
//	RATE_LIMIT_RPS, RATE_LIMIT_BURST, SCORE_WORKERS, HARD_MODE
//
// Word lists: with neither WORDS_DB nor WORDS_GUESSES_FILE set, the binaries use the
// lists embedded from assets/, a small sample (569 guesses, 429 solutions) meant for
// development and tests. Point WORDS_DB or WORDS_GUESSES_FILE/WORDS_SOLUTIONS_FILE at
// the full lists for real play.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DevTokenSecret is the fallback signing secret; never use it in production.
const DevTokenSecret = "dev_secret_change_me"

// Config holds every tunable. YAML keys mirror the environment names in lower case.
type Config struct {
	Port         string `yaml:"port"`
	LogLevel     string `yaml:"log_level"`
	LogPretty    bool   `yaml:"log_pretty"`
	ClientOrigin string `yaml:"client_origin"`

	WordsDB            string `yaml:"words_db"`
	WordsGuessesFile   string `yaml:"words_guesses_file"`
	WordsSolutionsFile string `yaml:"words_solutions_file"`
	PatternTable       string `yaml:"pattern_table"`

	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	SessionIdle time.Duration `yaml:"session_idle"`

	RateLimitRPS   int  `yaml:"rate_limit_rps"`
	RateLimitBurst int  `yaml:"rate_limit_burst"`
	ScoreWorkers   int  `yaml:"score_workers"`
	HardMode       bool `yaml:"hard_mode"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:           "5175",
		LogLevel:       "info",
		ClientOrigin:   "http://localhost:5173",
		TokenSecret:    DevTokenSecret,
		TokenTTL:       24 * time.Hour,
		SessionIdle:    30 * time.Minute,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
	}
}

// Load reads .env if present, then CONFIG_FILE, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.MergeYAML(path); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// MergeYAML overlays the keys present in the YAML file at path.
func (c *Config) MergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields with any environment variables that are set.
func (c *Config) ApplyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPretty = getEnvBool("LOG_PRETTY", c.LogPretty)
	c.ClientOrigin = getEnv("CLIENT_ORIGIN", c.ClientOrigin)

	c.WordsDB = getEnv("WORDS_DB", c.WordsDB)
	c.WordsGuessesFile = getEnv("WORDS_GUESSES_FILE", c.WordsGuessesFile)
	c.WordsSolutionsFile = getEnv("WORDS_SOLUTIONS_FILE", c.WordsSolutionsFile)
	c.PatternTable = getEnv("PATTERN_TABLE", c.PatternTable)

	c.TokenSecret = getEnv("TOKEN_SECRET", c.TokenSecret)
	c.TokenTTL = getEnvDuration("TOKEN_TTL", c.TokenTTL)
	c.SessionIdle = getEnvDuration("SESSION_IDLE", c.SessionIdle)

	c.RateLimitRPS = getEnvInt("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.ScoreWorkers = getEnvInt("SCORE_WORKERS", c.ScoreWorkers)
	c.HardMode = getEnvBool("HARD_MODE", c.HardMode)
}

// EmbeddedWords reports whether no word-list source is configured, so the
// binaries fall back to the embedded sample lists.
func (c Config) EmbeddedWords() bool {
	return c.WordsDB == "" && c.WordsGuessesFile == ""
}

// SetupLogging applies the level and output format to the global logger.
func (c Config) SetupLogging() {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", c.LogLevel).Msg("unknown LOG_LEVEL, keeping default")
	}
	if c.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// ------------------------------- env helpers -------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Int("default", def).Msg("invalid int, using default")
		return def
	}
	return n
}

func getEnvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Bool("default", def).Msg("invalid bool, using default")
		return def
	}
	return b
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Dur("default", def).Msg("invalid duration, using default")
		return def
	}
	return d
}
