package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel         string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort         string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort       string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	CheerCooldownSec int    `yaml:"cheer-cooldown-sec" env:"CHEER_COOLDOWN_SEC" env-default:"10"`
	Redis            Redis  `yaml:"redis"`
}

// Redis is optional: with no host configured the coordinator runs
// purely in-memory and skips the result archive.
type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// MustLoad - loads configuration from the yml file, falling back to
// environment variables when the file does not exist.
func MustLoad(path string) *Config {
	config := &Config{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = cleanenv.ReadEnv(config); err != nil {
			panic(fmt.Errorf("unable to read config from environment: %w", err))
		}

		return config
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) Addr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
