package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string   `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string   `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis    `yaml:"redis"`
	NATS       NATS     `yaml:"nats"`
	Postgres   Postgres `yaml:"postgres"`
	Game       Game     `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// NATS is optional: outcomes are not published when URL is empty.
type NATS struct {
	URL     string `yaml:"url" env:"NATS_URL" env-default:""`
	Subject string `yaml:"subject" env:"NATS_SUBJECT" env-default:"arena.outcomes"`
}

// Postgres is optional: results are not stored when DSN is empty.
type Postgres struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN" env-default:""`
}

type Game struct {
	TeardownGrace    time.Duration `yaml:"teardown-grace" env:"GAME_TEARDOWN_GRACE" env-default:"30s"`
	RoomCodeLength   int           `yaml:"room-code-length" env:"GAME_ROOM_CODE_LENGTH" env-default:"6"`
	InitialStatePath string        `yaml:"initial-state-path" env:"GAME_INITIAL_STATE_PATH" env-default:""`
	Goals            Goals         `yaml:"goals"`
}

type Goals struct {
	SlotOne int `yaml:"slot-one" env:"GAME_GOAL_SLOT_ONE" env-default:"1"`
	SlotTwo int `yaml:"slot-two" env:"GAME_GOAL_SLOT_TWO" env-default:"18"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
