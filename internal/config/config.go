package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config global configuration
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	System    SystemConfig    `mapstructure:"system"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// TelegramConfig Telegram configuration
type TelegramConfig struct {
	BotToken          string  `mapstructure:"bot_token" validate:"required"`
	AuthorIDs         []int64 `mapstructure:"author_ids" validate:"min=1"`
	CommunityChatID   int64   `mapstructure:"community_chat_id"`
	ModChatID         int64   `mapstructure:"mod_chat_id" validate:"required"`
	MilestoneChatID   int64   `mapstructure:"milestone_chat_id"`
	MoodChatID        int64   `mapstructure:"mood_chat_id"`
	AffirmationChatID int64   `mapstructure:"affirmation_chat_id"`
}

// IsAuthor reports whether userID is one of the bot authors
func (t *TelegramConfig) IsAuthor(userID int64) bool {
	for _, authorID := range t.AuthorIDs {
		if authorID == userID {
			return true
		}
	}
	return false
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	Host            string `mapstructure:"host" validate:"required_unless=Driver sqlite"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"` // file path for sqlite
	Charset         string `mapstructure:"charset"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // seconds
}

// RedisConfig optional redis used for sweep leases
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LeaseTTL time.Duration `mapstructure:"lease_ttl"`
}

// Enabled whether a redis address is configured
func (r *RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// SystemConfig system configuration
type SystemConfig struct {
	LogLevel         string `mapstructure:"log_level"`
	LogDir           string `mapstructure:"log_dir"`
	Timezone         string `mapstructure:"timezone"`
	RateLimitPerChat int    `mapstructure:"rate_limit_per_chat" validate:"gte=1"`
	GifDir           string `mapstructure:"gif_dir"`
	HTTPAddr         string `mapstructure:"http_addr"`
}

// Location configured timezone; falls back to UTC
func (s *SystemConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SchedulerConfig scheduler configuration
type SchedulerConfig struct {
	ReminderInterval  string        `mapstructure:"reminder_interval" validate:"required"`
	TimeoutInterval   string        `mapstructure:"timeout_interval" validate:"required"`
	MilestoneInterval string        `mapstructure:"milestone_interval" validate:"required"`
	CheckTimeout      time.Duration `mapstructure:"check_timeout" validate:"gt=0"`
}

// LoadConfig loads the config file and applies BOT_* environment overrides
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(cfg.System.Timezone); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", cfg.System.Timezone, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 1800)
	v.SetDefault("database.conn_max_idle_time", 600)

	v.SetDefault("redis.lease_ttl", "5m")

	v.SetDefault("system.log_level", "info")
	v.SetDefault("system.log_dir", "logs")
	v.SetDefault("system.timezone", "America/New_York")
	v.SetDefault("system.rate_limit_per_chat", 5)
	v.SetDefault("system.gif_dir", "gifs")
	v.SetDefault("system.http_addr", ":3000")

	v.SetDefault("scheduler.reminder_interval", "@every 1m")
	v.SetDefault("scheduler.timeout_interval", "@every 1h")
	v.SetDefault("scheduler.milestone_interval", "@every 1h")
	v.SetDefault("scheduler.check_timeout", "24h")
}
