package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendQueue  int           `mapstructure:"send_queue"`
	Secret     string        `mapstructure:"secret"`

	Session SessionConfig `mapstructure:"session"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

type SessionConfig struct {
	HostPolicy          string        `mapstructure:"host_policy"`
	NotifyExistingPeers bool          `mapstructure:"notify_existing_peers"`
	HandshakeTimeout    time.Duration `mapstructure:"handshake_timeout"`
	Backpressure        string        `mapstructure:"backpressure"`
	RateLimit           int           `mapstructure:"rate_limit"`
	RateInterval        time.Duration `mapstructure:"rate_interval"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_queue", 64)
	v.SetDefault("secret", "change-me")
	v.SetDefault("session.host_policy", "evict")
	v.SetDefault("session.notify_existing_peers", false)
	v.SetDefault("session.handshake_timeout", "0s")
	v.SetDefault("session.backpressure", "drop")
	v.SetDefault("session.rate_limit", 50)
	v.SetDefault("session.rate_interval", "1s")
	v.SetDefault("auth.jwt_secret", "")
}

// Load reads config/config.<CONFIG_ENV>.yaml, then ATTEND_* env overrides.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("ATTEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.SendQueue <= 0 {
		return nil, fmt.Errorf("send_queue must be positive, got %d", cfg.SendQueue)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("host_policy", cfg.Session.HostPolicy).Msg("config ready")
	return &cfg, nil
}
