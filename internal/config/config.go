// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/go-playground/validator/v10"
)

// Config holds client settings read from the environment (and .env via godotenv).
type Config struct {
	Game       models.GameType `validate:"required,oneof=find-it frog sequence slime-war"`
	Mode       models.Mode     `validate:"required,oneof=match together join"`
	Password   string
	WSBaseURL  string `validate:"required,url"`
	APIBaseURL string `validate:"required,url"`

	// TickUnit is the length of one timer unit.
	TickUnit        time.Duration `validate:"gt=0"`
	TransitionUnits int           `validate:"min=0,max=10"`
	DialTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ResultTimeout   time.Duration `validate:"gt=0"`
	EntryFee        int           `validate:"min=0"`

	CredentialSource string `validate:"oneof=env redis"`
	CredentialPrefix string
	RedisAddr        string `validate:"required_if=CredentialSource redis"`
	RedisDB          int    `validate:"min=0"`
	RecordQueue      string
	ArchiveResults   bool

	LogLevel string `validate:"oneof=trace debug info warn error"`
}

var validate = validator.New()

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Game:             models.GameType(getEnv("GAME", string(models.GameSequence))),
		Mode:             models.Mode(getEnv("MODE", string(models.ModeMatch))),
		Password:         os.Getenv("ROOM_PASSWORD"),
		WSBaseURL:        strings.TrimRight(getEnv("WS_BASE_URL", "ws://localhost:8080"), "/"),
		APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		TickUnit:         getEnvDuration("TICK_MS", time.Second),
		TransitionUnits:  getEnvInt("TRANSITION_UNITS", 2),
		DialTimeout:      getEnvDuration("DIAL_TIMEOUT_MS", 5*time.Second),
		WriteTimeout:     getEnvDuration("WRITE_TIMEOUT_MS", 3*time.Second),
		ResultTimeout:    getEnvDuration("RESULT_TIMEOUT_MS", 5*time.Second),
		EntryFee:         getEnvInt("ENTRY_FEE", 0),
		CredentialSource: getEnv("CREDENTIAL_SOURCE", "env"),
		CredentialPrefix: getEnv("CREDENTIAL_PREFIX", "board-game:"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RecordQueue:      getEnv("SESSION_QUEUE_NAME", "board_game_session_events"),
		ArchiveResults:   getEnvBool("ARCHIVE_RESULTS", false),
		LogLevel:         getEnv("LOG_LEVEL", "debug"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Historian holds the settings of the queue-draining service.
type Historian struct {
	RedisAddr     string        `validate:"required"`
	RedisDB       int           `validate:"min=0"`
	Queue         string        `validate:"required"`
	BatchSize     int           `validate:"min=1"`
	FlushDelay    time.Duration `validate:"gt=0"`
	Inactivity    time.Duration `validate:"gt=0"`
	SweepInterval time.Duration `validate:"gt=0"`
	Migrate       bool
	LogLevel      string `validate:"oneof=trace debug info warn error"`
}

// LoadHistorian reads the historian configuration and validates it.
func LoadHistorian() (*Historian, error) {
	cfg := &Historian{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		Queue:         getEnv("SESSION_QUEUE_NAME", "board_game_session_events"),
		BatchSize:     getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushDelay:    getEnvDuration("HISTORIAN_FLUSH_MS", 500*time.Millisecond),
		Inactivity:    time.Duration(getEnvInt("SESSION_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
		SweepInterval: time.Minute,
		Migrate:       getEnvBool("HISTORIAN_MIGRATE", true),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid historian config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration reads a millisecond count.
func getEnvDuration(key string, def time.Duration) time.Duration {
	ms := getEnvInt(key, -1)
	if ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
