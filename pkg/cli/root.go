package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/schemagen/pkg/config"
	"github.com/getmockd/schemagen/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	configFile string
	logLevel   string
	logFormat  string
	logFile    string
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// Resolved by loadConfig before any command runs.
var (
	cfg       = config.Default()
	logger    = logging.Nop()
	logCloser io.Closer
)

// configKeys maps, per command, flag names to the config keys they override.
var configKeys = map[*cobra.Command]map[string]string{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schemagen",
	Short: "schemagen generates synthetic data from JSON Schema",
	Long: `schemagen generates random values that conform to a JSON Schema subset
(integer, number, string, boolean, array, object and enum), verifies values
against schemas, serves generation over HTTP and publishes records to MQTT.

Configuration can be provided via flags, SCHEMAGEN_* environment variables
(a .env file in the working directory is loaded first) or a configuration
file. By default, schemagen looks for schemagen.yaml in the working directory
and in ~/.schemagen.`,
	SilenceUsage:      true,
	SilenceErrors:     true, // We handle errors in Main()
	PersistentPreRunE: loadConfig,
}

func init() {
	defaults := config.Default()
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: schemagen.yaml in . or ~/.schemagen)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", defaults.Log.Format, "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}

// bindConfig records which flags of cmd override which config keys.
func bindConfig(cmd *cobra.Command, keys map[string]string) {
	configKeys[cmd] = keys
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loader := config.NewLoader()

	persistent := map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
		"log-file":   "log.file",
	}
	for name, key := range persistent {
		if err := loader.BindFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return err
		}
	}
	for name, key := range configKeys[cmd] {
		if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}

	loaded, err := loader.Load(configFile)
	if err != nil {
		return err
	}

	log, closer, err := logging.New(logging.Config{
		Level:  logging.ParseLevel(loaded.Log.Level),
		Format: logging.ParseFormat(loaded.Log.Format),
		Output: cmd.ErrOrStderr(),
		File:   loaded.Log.File,
	})
	if err != nil {
		return err
	}

	cfg, logger, logCloser = loaded, log, closer
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", "file", used)
	}
	return nil
}

// Main runs the command line and returns the process exit code.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, rootCmd, os.Stderr)
}

func run(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if logCloser != nil {
		if cerr := logCloser.Close(); cerr != nil {
			logger.Warn("failed to close log file", slog.Any("error", cerr))
		}
	}
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, "Error:", err)
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	return 1
}

// Execute runs the command line and exits the process.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}
