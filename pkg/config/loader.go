package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "SCHEMAGEN"

// FileName is the config file name searched for, without extension.
const FileName = "schemagen"

// Loader resolves a Config from files, the environment and flags.
type Loader struct {
	v *viper.Viper

	// EnvFile is loaded into the environment before reading. Missing files
	// are ignored. Defaults to ".env".
	EnvFile string
}

// NewLoader returns a loader seeded with Default values.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, EnvFile: ".env"}
}

// BindFlag makes flag override key when it is set on the command line.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// ConfigFileUsed returns the file read by the last Load, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load reads configuration. An explicit file must exist; otherwise
// schemagen.yaml is searched for in the working directory and
// $HOME/.schemagen, and its absence is not an error.
func (l *Loader) Load(file string) (*Config, error) {
	if l.EnvFile != "" {
		if err := godotenv.Load(l.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", l.EnvFile, err)
		}
	}

	if file != "" {
		l.v.SetConfigFile(file)
	} else {
		l.v.SetConfigName(FileName)
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".schemagen"))
		}
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key of cfg so that environment variables
// are seen by Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)

	v.SetDefault("generate.count", cfg.Generate.Count)
	v.SetDefault("generate.format", cfg.Generate.Format)
	v.SetDefault("generate.concurrency", cfg.Generate.Concurrency)
	v.SetDefault("generate.unique-attempts", cfg.Generate.UniqueAttempts)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.schemas-dir", cfg.Server.SchemasDir)
	v.SetDefault("server.watch", cfg.Server.Watch)
	v.SetDefault("server.data-dir", cfg.Server.DataDir)
	v.SetDefault("server.jwt-secret", cfg.Server.JWTSecret)
	v.SetDefault("server.rate-limit", cfg.Server.RateLimit)
	v.SetDefault("server.rate-burst", cfg.Server.RateBurst)
	v.SetDefault("server.max-count", cfg.Server.MaxCount)
	v.SetDefault("server.max-length", cfg.Server.MaxLength)
	v.SetDefault("server.stream-rate", cfg.Server.StreamRate)
	v.SetDefault("server.shutdown-timeout", cfg.Server.Shutdown)

	v.SetDefault("mqtt.broker", cfg.MQTT.Broker)
	v.SetDefault("mqtt.topic", cfg.MQTT.Topic)
	v.SetDefault("mqtt.client-id", cfg.MQTT.ClientID)
	v.SetDefault("mqtt.username", cfg.MQTT.Username)
	v.SetDefault("mqtt.password", cfg.MQTT.Password)
	v.SetDefault("mqtt.qos", cfg.MQTT.QoS)
	v.SetDefault("mqtt.rate", cfg.MQTT.Rate)
}
