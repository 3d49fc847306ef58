package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	PayloadPermissive = "permissive"
	PayloadStrict     = "strict"

	PolicyDrop = "drop"
	PolicyKick = "kick"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	SocketPath     string        `mapstructure:"socket_path"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	ShutdownWait   time.Duration `mapstructure:"shutdown_wait"`
	PayloadPolicy  string        `mapstructure:"payload_policy"`
	SlowPolicy     string        `mapstructure:"slow_policy"`
	LogLevel       string        `mapstructure:"log_level"`
	Secret         string        `mapstructure:"secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("socket_path", "/api/socket")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("read_limit", 32768)
	v.SetDefault("send_buffer", 256)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("shutdown_wait", "5s")
	v.SetDefault("payload_policy", PayloadPermissive)
	v.SetDefault("slow_policy", PolicyDrop)
	v.SetDefault("log_level", "info")
	v.SetDefault("secret", "change-me")
}

// Load reads config/config.<CONFIG_ENV>.yaml on top of the defaults.
// CHAT_* environment variables (also from a local .env) win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	v := newViper(fmt.Sprintf("config/config.%s.yaml", env))

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", v.ConfigFileUsed()).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", v.ConfigFileUsed()).Msg("loaded config")
		watchLogLevel(v)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("payload_policy", cfg.PayloadPolicy).Msg("config ready")
	return cfg, nil
}

// LoadFile is Load without environment discovery, used by tests and tools.
func LoadFile(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

func newViper(file string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(file)
	v.SetEnvPrefix("chat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.PayloadPolicy {
	case PayloadPermissive, PayloadStrict:
	default:
		return fmt.Errorf("%w: payload_policy %q", ErrInvalidConfig, c.PayloadPolicy)
	}
	switch c.SlowPolicy {
	case PolicyDrop, PolicyKick:
	default:
		return fmt.Errorf("%w: slow_policy %q", ErrInvalidConfig, c.SlowPolicy)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	}
	if !strings.HasPrefix(c.SocketPath, "/") {
		return fmt.Errorf("%w: socket_path %q", ErrInvalidConfig, c.SocketPath)
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("%w: read_limit %d", ErrInvalidConfig, c.ReadLimit)
	}
	if c.WriteWait <= 0 {
		return fmt.Errorf("%w: write_wait %s", ErrInvalidConfig, c.WriteWait)
	}
	if c.ShutdownWait <= 0 {
		return fmt.Errorf("%w: shutdown_wait %s", ErrInvalidConfig, c.ShutdownWait)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("%w: send_buffer %d", ErrInvalidConfig, c.SendBuffer)
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		return fmt.Errorf("%w: ping_period must be positive and below pong_wait", ErrInvalidConfig)
	}
	return nil
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func watchLogLevel(v *viper.Viper) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		lvl, err := zerolog.ParseLevel(v.GetString("log_level"))
		if err != nil {
			log.Warn().Err(err).Str("module", "config").Msg("ignoring bad log_level")
			return
		}
		zerolog.SetGlobalLevel(lvl)
		log.Info().Str("module", "config").Str("level", lvl.String()).Msg("log level reloaded")
	})
	v.WatchConfig()
}
