package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/parleyhq/parley/internal/domain"
)

type RoomSeed struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	DefaultRoom  string     `mapstructure:"default_room"`
	HistoryLimit int        `mapstructure:"history_limit"`
	Rooms        []RoomSeed `mapstructure:"rooms"`

	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
}

// SeededRooms converts the configured room list into domain rooms.
func (c *Config) SeededRooms() []domain.Room {
	out := make([]domain.Room, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		out = append(out, domain.Room{ID: domain.RoomID(r.ID), Name: domain.RoomName(r.Name)})
	}
	return out
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("default_room", "general")
	v.SetDefault("history_limit", 200)
	v.SetDefault("environment", env)
	v.SetDefault("rooms", []map[string]string{
		{"id": "general", "name": "General"},
		{"id": "random", "name": "Random"},
		{"id": "tech", "name": "Tech Talk"},
	})

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Rooms: %d\n", cfg.Mode, cfg.Port, len(cfg.Rooms))
	return &cfg, nil
}
