package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with HOME pointed at it, so
// no real config or .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	l := NewLoader()
	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, l.ConfigFileUsed())
}

func TestLoad_FileInWorkingDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemagen.yaml"), []byte(`
log:
  level: debug
generate:
  count: 25
  format: ndjson
server:
  addr: 0.0.0.0:9090
  jwt-secret: 0123456789abcdef
  shutdown-timeout: 2s
mqtt:
  topic: devices/readings
  qos: 0
`), 0o600))

	l := NewLoader()
	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 25, cfg.Generate.Count)
	assert.Equal(t, "ndjson", cfg.Generate.Format)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr)
	assert.Equal(t, "0123456789abcdef", cfg.Server.JWTSecret)
	assert.Equal(t, 2*time.Second, cfg.Server.Shutdown)
	assert.Equal(t, "devices/readings", cfg.MQTT.Topic)
	assert.Equal(t, 0, cfg.MQTT.QoS)
	// Untouched keys keep their defaults.
	assert.Equal(t, 4, cfg.Generate.Concurrency)
	assert.Equal(t, "schemagen.yaml", filepath.Base(l.ConfigFileUsed()))
}

func TestLoad_HomeDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".schemagen"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".schemagen", "schemagen.yaml"),
		[]byte("generate:\n  count: 7\n"), 0o600))

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Generate.Count)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  max-count: 50\n"), 0o600))

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Server.MaxCount)

	_, err = NewLoader().Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemagen.yaml"),
		[]byte("generate:\n  count: 3\nserver:\n  addr: 127.0.0.1:1000\n"), 0o600))
	t.Setenv("SCHEMAGEN_GENERATE_COUNT", "11")
	t.Setenv("SCHEMAGEN_SERVER_RATE_LIMIT", "2.5")

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)
	assert.Equal(t, 11, cfg.Generate.Count)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, "127.0.0.1:1000", cfg.Server.Addr)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SCHEMAGEN_MQTT_TOPIC=from/dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SCHEMAGEN_MQTT_TOPIC") })

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)
	assert.Equal(t, "from/dotenv", cfg.MQTT.Topic)
}

func TestLoad_FlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("SCHEMAGEN_GENERATE_COUNT", "11")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("count", 1, "")
	fs.String("format", "json", "")
	require.NoError(t, fs.Parse([]string{"--count", "40"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag("generate.count", fs.Lookup("count")))
	require.NoError(t, l.BindFlag("generate.format", fs.Lookup("format")))
	require.Error(t, l.BindFlag("generate.concurrency", fs.Lookup("missing")))

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Generate.Count)
	// An unset flag does not override the default.
	assert.Equal(t, "json", cfg.Generate.Format)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv("SCHEMAGEN_LOG_FORMAT", "xml")

	_, err := NewLoader().Load("")
	require.Error(t, err)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "log.format", verrs[0].Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{"defaults", func(*Config) {}, nil},
		{"zero count", func(c *Config) { c.Generate.Count = 0 }, []string{"generate.count"}},
		{"unknown format", func(c *Config) { c.Generate.Format = "csv" }, []string{"generate.format"}},
		{"bad addr", func(c *Config) { c.Server.Addr = "localhost" }, []string{"server.addr"}},
		{"watch without dir", func(c *Config) { c.Server.Watch = true }, []string{"server.schemas-dir"}},
		{"short secret", func(c *Config) { c.Server.JWTSecret = "abc" }, []string{"server.jwt-secret"}},
		{"qos", func(c *Config) { c.MQTT.QoS = 3 }, []string{"mqtt.qos"}},
		{"broker url", func(c *Config) { c.MQTT.Broker = "not a url" }, []string{"mqtt.broker"}},
		{"uncapped uniqueness", func(c *Config) { c.Generate.UniqueAttempts = -1 }, nil},
		{"unique attempts", func(c *Config) { c.Generate.UniqueAttempts = -2 }, []string{"generate.unique-attempts"}},
		{"zero max length", func(c *Config) { c.Server.MaxLength = 0 }, []string{"server.max-length"}},
		{
			"several",
			func(c *Config) { c.Log.Level = "loud"; c.Server.StreamRate = 0 },
			[]string{"log.level", "server.stream-rate"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.fields == nil {
				require.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			var fields []string
			for _, ve := range verrs {
				fields = append(fields, ve.Field)
				assert.NotEmpty(t, ve.Message)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationErrors{
		{Field: "a", Message: "is required"},
		{Field: "b", Message: "must be at least 1, got 0"},
	}
	assert.Equal(t, "validation error on a: is required; validation error on b: must be at least 1, got 0", err.Error())
}
