package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Reconnect ReconnectConfig
	Replay    ReplayConfig
	Debug     DebugConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Journal   JournalConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	// URL is the realtime endpoint, e.g. ws://localhost:8000/ws/game.
	URL      string
	PlayerID string
}

type ReconnectConfig struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

// ReplayMode selects how server-reported board mutations are played back.
type ReplayMode string

const (
	ReplayDelta    ReplayMode = "delta"
	ReplaySnapshot ReplayMode = "snapshot"
)

type ReplayConfig struct {
	Mode             ReplayMode
	StepDelay        time.Duration
	SnapshotInterval time.Duration
}

type DebugConfig struct {
	// Addr is where the client serves its debug API. Empty disables it.
	Addr string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type JournalConfig struct {
	Port int
}

type SecurityConfig struct {
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			URL:      getEnv("SERVER_URL", "ws://localhost:8000/ws/game"),
			PlayerID: getEnv("PLAYER_ID", ""),
		},
		Reconnect: ReconnectConfig{
			Base:        getEnvDuration("RECONNECT_BASE", time.Second),
			Cap:         getEnvDuration("RECONNECT_CAP", 30*time.Second),
			MaxAttempts: getEnvInt("RECONNECT_MAX_ATTEMPTS", 10),
		},
		Replay: ReplayConfig{
			Mode:             ReplayMode(getEnv("REPLAY_MODE", string(ReplayDelta))),
			StepDelay:        getEnvDuration("STEP_DELAY", 250*time.Millisecond),
			SnapshotInterval: getEnvDuration("SNAPSHOT_INTERVAL", 500*time.Millisecond),
		},
		Debug: DebugConfig{
			Addr: getEnv("DEBUG_ADDR", ""),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "chainreaction"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "client-events"),
			GroupID: getEnv("KAFKA_GROUP_ID", "journal-group"),
		},
		Journal: JournalConfig{
			Port: getEnvInt("JOURNAL_PORT", 8090),
		},
		Security: SecurityConfig{
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("invalid SERVER_URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid SERVER_URL scheme %q: want ws or wss", u.Scheme)
	}
	if c.Reconnect.Base <= 0 || c.Reconnect.Cap < c.Reconnect.Base {
		return fmt.Errorf("invalid reconnect backoff: base=%s cap=%s", c.Reconnect.Base, c.Reconnect.Cap)
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("invalid RECONNECT_MAX_ATTEMPTS: %d", c.Reconnect.MaxAttempts)
	}
	switch c.Replay.Mode {
	case ReplayDelta, ReplaySnapshot:
	default:
		return fmt.Errorf("invalid REPLAY_MODE %q", c.Replay.Mode)
	}
	if c.Replay.StepDelay < 0 || c.Replay.SnapshotInterval < 0 {
		return fmt.Errorf("replay delays must not be negative")
	}
	return nil
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
