// Package config loads isoflow settings from ISOFLOW_* environment variables
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const envPrefix = "ISOFLOW"

// Config holds all application configuration.
type Config struct {
	Log         LogConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Server      ServerConfig
	OpenAI      OpenAIConfig
	Suggestions SuggestionsConfig
	Slack       SlackConfig
	Recurrence  RecurrenceConfig
	SelfHosted  bool
}

type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Change streaming is off
// when Enabled is false.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds bearer token settings.
type JWTConfig struct {
	Secret    string //nolint:gosec // G117: JWT signing secret config
	AccessTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// OpenAIConfig configures the clause suggestion oracle. An empty APIKey
// disables suggestions.
type OpenAIConfig struct {
	APIKey     string //nolint:gosec // G117: API credential config
	BaseURL    string
	Model      string
	MaxRetries int
}

type SuggestionsConfig struct {
	Threshold float64
}

// SlackConfig holds Slack notification settings. Posting is off without a token.
type SlackConfig struct {
	BotToken string
	Channel  string
}

type RecurrenceConfig struct {
	MaxOccurrences int
}

// Load reads configuration from the environment. ISOFLOW_CONFIG_FILE names
// an optional YAML file whose keys (e.g. db.host) are overridden by the
// matching variables (ISOFLOW_DB_HOST).
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", file, err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from v; unparsable values are errors naming the key.
func FromViper(v *viper.Viper) (*Config, error) {
	r := reader{v: v}

	cfg := &Config{
		Log: LogConfig{
			Level:  r.getString("log.level", "info"),
			Format: r.getString("log.format", "json"),
		},
		Database: DatabaseConfig{
			Host:     r.getString("db.host", "localhost"),
			Port:     r.getInt("db.port", 5432),
			User:     r.getString("db.user", "isoflow"),
			Password: r.getString("db.password", ""),
			DBName:   r.getString("db.name", "isoflow_dev"),
			SSLMode:  r.getString("db.sslmode", "disable"),
			MaxConns: r.getInt("db.max_conns", 25),
		},
		Redis: RedisConfig{
			Enabled:  r.getBool("redis.enabled", true),
			Addr:     r.getString("redis.addr", "localhost:6379"),
			Password: r.getString("redis.password", ""),
			DB:       r.getInt("redis.db", 0),
		},
		JWT: JWTConfig{
			Secret:    r.getString("jwt.secret", ""),
			AccessTTL: r.getDuration("jwt.access_ttl", 15*time.Minute),
		},
		Server: ServerConfig{
			Addr:           r.getString("server.addr", ":8080"),
			ReadTimeout:    r.getDuration("server.read_timeout", 10*time.Second),
			WriteTimeout:   r.getDuration("server.write_timeout", 30*time.Second),
			CORSOrigins:    r.getList("server.cors_origins", []string{"http://localhost:5173"}),
			RateLimitRPS:   r.getFloat("server.rate_limit_rps", 100),
			RateLimitBurst: r.getInt("server.rate_limit_burst", 200),
		},
		OpenAI: OpenAIConfig{
			APIKey:     r.getString("openai.api_key", ""),
			BaseURL:    r.getString("openai.base_url", ""),
			Model:      r.getString("openai.model", ""),
			MaxRetries: r.getInt("openai.max_retries", 2),
		},
		Suggestions: SuggestionsConfig{
			Threshold: r.getFloat("suggestions.threshold", 0.8),
		},
		Slack: SlackConfig{
			BotToken: r.getString("slack.bot_token", ""),
			Channel:  r.getString("slack.channel", ""),
		},
		Recurrence: RecurrenceConfig{
			MaxOccurrences: r.getInt("recurrence.max_occurrences", 366),
		},
		SelfHosted: r.getBool("self_hosted", false),
	}
	if r.err != nil {
		return nil, fmt.Errorf("config.Load: %w", r.err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("ISOFLOW_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("ISOFLOW_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" && !c.SelfHosted {
		log.Warn().Msg("ISOFLOW_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("ISOFLOW_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("ISOFLOW_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("ISOFLOW_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("ISOFLOW_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("ISOFLOW_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("ISOFLOW_SERVER_RATE_LIMIT_RPS and _BURST must be positive, got %g/%d",
			c.Server.RateLimitRPS, c.Server.RateLimitBurst)
	}
	if c.Suggestions.Threshold < 0 || c.Suggestions.Threshold > 1 {
		return fmt.Errorf("ISOFLOW_SUGGESTIONS_THRESHOLD must be within [0,1], got %g", c.Suggestions.Threshold)
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("ISOFLOW_OPENAI_MAX_RETRIES must be >= 0, got %d", c.OpenAI.MaxRetries)
	}
	if c.Recurrence.MaxOccurrences < 1 {
		return fmt.Errorf("ISOFLOW_RECURRENCE_MAX_OCCURRENCES must be >= 1, got %d", c.Recurrence.MaxOccurrences)
	}
	if c.Slack.BotToken != "" && c.Slack.Channel == "" {
		return errors.New("ISOFLOW_SLACK_CHANNEL is required when ISOFLOW_SLACK_BOT_TOKEN is set")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("ISOFLOW_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// reader parses viper values as strings so a malformed value is reported
// instead of silently becoming zero. The first error sticks.
type reader struct {
	v   *viper.Viper
	err error
}

// envName renders key the way it is spelled in the environment.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (r *reader) raw(key string) (string, bool) {
	s := strings.TrimSpace(r.v.GetString(key))
	return s, s != ""
}

func (r *reader) fail(key, v, kind string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("parsing %s=%q as %s: %w", envName(key), v, kind, err)
	}
}

func (r *reader) getString(key, fallback string) string {
	if v := r.v.GetString(key); v != "" {
		return v
	}
	return fallback
}

func (r *reader) getInt(key string, fallback int) int {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, "int", err)
		return 0
	}
	return n
}

func (r *reader) getFloat(key string, fallback float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, "float", err)
		return 0
	}
	return f
}

func (r *reader) getBool(key string, fallback bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, "bool", err)
		return false
	}
	return b
}

func (r *reader) getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, "duration", err)
		return 0
	}
	return d
}

// list accepts a comma-separated string or a YAML sequence.
func (r *reader) getList(key string, fallback []string) []string {
	var parts []string
	switch raw := r.v.Get(key).(type) {
	case nil:
		return fallback
	case string:
		parts = strings.Split(raw, ",")
	default:
		parts = r.v.GetStringSlice(key)
	}
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
