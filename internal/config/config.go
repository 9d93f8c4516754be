package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"peerprep/captcha/internal/captcha"

	"gopkg.in/yaml.v3"
)

// app config, loaded once at startup
type Config struct {
	Port string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ChallengeTTL      time.Duration
	DefaultSize       int
	MaxSize           int
	DefaultDifficulty captcha.Difficulty
	ImageHeight       int
	Profiles          captcha.Profiles

	TokenSecret string
	TokenTTL    time.Duration

	DBDriver   string
	SQLitePath string
	Postgres   PostgresConfig

	AttemptRetention time.Duration
	PruneSchedule    string

	AllowedOrigins []string
}

type PostgresConfig struct {
	Host     string
	User     string
	Password string
	DBName   string
	Port     string
	SSLMode  string
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode)
}

// profileFile is the layout of CAPTCHA_PROFILE_FILE
type profileFile struct {
	Easy   captcha.Profile `yaml:"easy"`
	Normal captcha.Profile `yaml:"normal"`
	Hard   captcha.Profile `yaml:"hard"`
}

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var errs []error

	config := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		TokenSecret:   os.Getenv("CAPTCHA_TOKEN_SECRET"),
		DBDriver:      strings.ToLower(getEnvOrDefault("CAPTCHA_DB_DRIVER", "postgres")),
		SQLitePath:    getEnvOrDefault("CAPTCHA_SQLITE_PATH", "captcha.db"),
		PruneSchedule: getEnvOrDefault("CAPTCHA_PRUNE_SCHEDULE", "0 3 * * *"),
		Postgres: PostgresConfig{
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			User:     getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("POSTGRES_DB", "postgres"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
			SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		},
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	var err error
	if config.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	if config.DefaultSize, err = getEnvInt("CAPTCHA_DEFAULT_SIZE", 3); err != nil {
		errs = append(errs, err)
	}
	if config.MaxSize, err = getEnvInt("CAPTCHA_MAX_SIZE", 12); err != nil {
		errs = append(errs, err)
	}
	if config.ImageHeight, err = getEnvInt("CAPTCHA_IMAGE_HEIGHT", 30); err != nil {
		errs = append(errs, err)
	}
	if config.ChallengeTTL, err = getEnvDuration("CAPTCHA_CHALLENGE_TTL", 5*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if config.TokenTTL, err = getEnvDuration("CAPTCHA_TOKEN_TTL", 2*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if config.AttemptRetention, err = getEnvDuration("CAPTCHA_ATTEMPT_RETENTION", 30*24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if config.DefaultDifficulty, err = captcha.ParseDifficulty(getEnvOrDefault("CAPTCHA_DEFAULT_DIFFICULTY", "normal")); err != nil {
		errs = append(errs, fmt.Errorf("CAPTCHA_DEFAULT_DIFFICULTY: %w", err))
	}

	config.Profiles = captcha.DefaultProfiles()
	if path := os.Getenv("CAPTCHA_PROFILE_FILE"); path != "" {
		profiles, err := LoadProfiles(path)
		if err != nil {
			errs = append(errs, err)
		} else {
			config.Profiles = profiles
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadProfiles reads per-difficulty operand ranges from a YAML file.
// Levels missing from the file keep their defaults.
func LoadProfiles(path string) (captcha.Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return captcha.Profiles{}, fmt.Errorf("failed to read profile file: %w", err)
	}
	return ParseProfiles(data)
}

func ParseProfiles(data []byte) (captcha.Profiles, error) {
	defaults := captcha.DefaultProfiles()
	file := profileFile{
		Easy:   defaults[captcha.Easy],
		Normal: defaults[captcha.Normal],
		Hard:   defaults[captcha.Hard],
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return captcha.Profiles{}, fmt.Errorf("failed to parse profile file: %w", err)
	}

	profiles := captcha.Profiles{
		captcha.Easy:   file.Easy,
		captcha.Normal: file.Normal,
		captcha.Hard:   file.Hard,
	}
	if err := profiles.Validate(); err != nil {
		return captcha.Profiles{}, err
	}
	return profiles, nil
}

func validateConfig(config *Config) error {
	if config.TokenSecret == "" {
		return errors.New("CAPTCHA_TOKEN_SECRET is required")
	}
	if config.DBDriver != "postgres" && config.DBDriver != "sqlite" {
		return errors.New("unsupported database driver: " + config.DBDriver + ". Currently supported: postgres, sqlite")
	}
	if config.MaxSize < captcha.MinSize {
		return fmt.Errorf("CAPTCHA_MAX_SIZE must be at least %d", captcha.MinSize)
	}
	if config.DefaultSize < captcha.MinSize || config.DefaultSize > config.MaxSize {
		return fmt.Errorf("CAPTCHA_DEFAULT_SIZE must be between %d and %d", captcha.MinSize, config.MaxSize)
	}
	if config.ChallengeTTL <= 0 || config.TokenTTL <= 0 {
		return errors.New("challenge and token TTLs must be positive")
	}
	if config.AttemptRetention <= 0 {
		return errors.New("CAPTCHA_ATTEMPT_RETENTION must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return i, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration", key, value)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
