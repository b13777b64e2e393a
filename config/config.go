package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

type Config struct {
	Discord  DiscordConfig
	Tickets  TicketsConfig
	Database DatabaseConfig
	Events   EventsConfig
	Lock     LockConfig
	Log      LogConfig
	LangFile string
}

type DiscordConfig struct {
	Token   string
	GuildID string
}

type TicketsConfig struct {
	LogChannel      string
	SupportRole     string
	CategoryName    string
	TranscriptDir   string
	CloseDelay      time.Duration
	ConfirmTTL      time.Duration
	ConfirmCapacity int
}

type DatabaseConfig struct {
	Driver   string
	SQLite   SQLiteConfig
	MongoDB  MongoDBConfig
	Postgres PostgresConfig
}

type SQLiteConfig struct {
	Path string
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type PostgresConfig struct {
	DSN string
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

type LockConfig struct {
	RedisURL string
	TTL      time.Duration
}

type LogConfig struct {
	Level string
}

// Load reads envFile (when present) into the process environment and builds
// the configuration from it. A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Discord: DiscordConfig{
			Token:   strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
			GuildID: os.Getenv("DISCORD_GUILD_ID"),
		},
		Tickets: TicketsConfig{
			LogChannel:      os.Getenv("LOG_CHANNEL_ID"),
			SupportRole:     os.Getenv("SUPPORT_ROLE_ID"),
			CategoryName:    getEnv("TICKET_CATEGORY_NAME", "TICKETS"),
			TranscriptDir:   getEnv("TRANSCRIPT_DIR", "data/transcripts"),
			CloseDelay:      getEnvAsDuration("TICKET_CLOSE_DELAY", time.Second),
			ConfirmTTL:      getEnvAsDuration("TICKET_CONFIRM_TTL", 15*time.Minute),
			ConfirmCapacity: getEnvAsInt("TICKET_CONFIRM_CAPACITY", 1024),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
			SQLite: SQLiteConfig{Path: getEnv("SQLITE_PATH", "data/tickets.db")},
			MongoDB: MongoDBConfig{
				URI:      os.Getenv("MONGODB_URI"),
				Database: getEnv("MONGODB_DATABASE", "tickets"),
			},
			Postgres: PostgresConfig{DSN: os.Getenv("POSTGRES_DSN")},
		},
		Events: EventsConfig{
			AMQPURL:  os.Getenv("EVENTS_AMQP_URL"),
			Exchange: getEnv("EVENTS_EXCHANGE", "tickets"),
		},
		Lock: LockConfig{
			RedisURL: os.Getenv("CLOSE_LOCK_REDIS_URL"),
			TTL:      getEnvAsDuration("CLOSE_LOCK_TTL", 2*time.Minute),
		},
		Log:      LogConfig{Level: getEnv("LOG_LEVEL", "info")},
		LangFile: os.Getenv("LANG_FILE"),
	}
	return cfg, nil
}

// Validate reports configuration the bot cannot start with.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return ErrMissingToken
	}
	ids := map[string]string{
		"DISCORD_GUILD_ID": c.Discord.GuildID,
		"LOG_CHANNEL_ID":   c.Tickets.LogChannel,
		"SUPPORT_ROLE_ID":  c.Tickets.SupportRole,
	}
	for key, v := range ids {
		if v != "" && !IsSnowflake(v) {
			return fmt.Errorf("%s: %q is not a numeric id", key, v)
		}
	}
	if c.Tickets.ConfirmCapacity <= 0 {
		return fmt.Errorf("TICKET_CONFIRM_CAPACITY must be positive, got %d", c.Tickets.ConfirmCapacity)
	}
	return nil
}

// IsSnowflake reports whether s looks like a Discord id.
func IsSnowflake(s string) bool {
	if s == "" || len(s) > 20 {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
