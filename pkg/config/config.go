package config

import (
	"time"

	"github.com/getmockd/schemagen/pkg/encode"
	"github.com/getmockd/schemagen/pkg/generator"
	"github.com/getmockd/schemagen/pkg/server"
)

// Config is the complete schemagen configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Generate GenerateConfig `mapstructure:"generate"`
	Server   ServerConfig   `mapstructure:"server"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	// File additionally receives JSON logs when set.
	File string `mapstructure:"file"`
}

// GenerateConfig holds defaults for the generate command.
type GenerateConfig struct {
	Count          int    `mapstructure:"count" validate:"gte=1,lte=1000000"`
	Format         string `mapstructure:"format" validate:"oneof=json ndjson jsonl yaml yml xml"`
	Concurrency    int    `mapstructure:"concurrency" validate:"gte=1,lte=256"`
	UniqueAttempts int    `mapstructure:"unique-attempts" validate:"gte=-1"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr       string        `mapstructure:"addr" validate:"required,hostname_port"`
	SchemasDir string        `mapstructure:"schemas-dir" validate:"required_if=Watch true"`
	Watch      bool          `mapstructure:"watch"`
	DataDir    string        `mapstructure:"data-dir"`
	JWTSecret  string        `mapstructure:"jwt-secret" validate:"omitempty,min=16"`
	RateLimit  float64       `mapstructure:"rate-limit" validate:"gte=0"`
	RateBurst  int           `mapstructure:"rate-burst" validate:"gte=0"`
	MaxCount   int           `mapstructure:"max-count" validate:"gte=1"`
	MaxLength  int           `mapstructure:"max-length" validate:"gte=1"`
	StreamRate float64       `mapstructure:"stream-rate" validate:"gt=0,lte=1000"`
	Shutdown   time.Duration `mapstructure:"shutdown-timeout" validate:"gt=0"`
}

// MQTTConfig configures the publish command.
type MQTTConfig struct {
	Broker   string  `mapstructure:"broker" validate:"omitempty,url"`
	Topic    string  `mapstructure:"topic"`
	ClientID string  `mapstructure:"client-id"`
	Username string  `mapstructure:"username"`
	Password string  `mapstructure:"password"`
	QoS      int     `mapstructure:"qos" validate:"gte=0,lte=2"`
	Rate     float64 `mapstructure:"rate" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Generate: GenerateConfig{
			Count:          1,
			Format:         string(encode.FormatJSON),
			Concurrency:    4,
			UniqueAttempts: generator.DefaultMaxUniqueAttempts,
		},
		Server: ServerConfig{
			Addr:       server.DefaultAddr,
			MaxCount:   server.DefaultMaxCount,
			MaxLength:  server.DefaultMaxLength,
			StreamRate: server.DefaultStreamRate,
			Shutdown:   server.DefaultShutdownTimeout,
		},
		MQTT: MQTTConfig{
			Broker: "tcp://localhost:1883",
			Topic:  "schemagen/records",
			QoS:    1,
		},
	}
}
