package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/schemagen/internal/storage"
	"github.com/getmockd/schemagen/pkg/cli/internal/output"
	"github.com/getmockd/schemagen/pkg/server"
)

// serveFlags holds the values bound to serve's cobra flags. They are read
// through the loaded config, which they override when set.
type serveFlags struct {
	addr       string
	schemasDir string
	watch      bool
	dataDir    string
	jwtSecret  string
	rateLimit  float64
	rateBurst  int
	maxCount   int
	maxLength  int
	streamRate float64
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

// serveCmd runs the HTTP API in the foreground.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve record generation over HTTP",
	Long: `Start the schemagen HTTP API.

Schemas can be posted inline to /generate or registered by name under
/schemas. With --schemas-dir every *.json, *.yaml and *.yml file in the
directory is registered at startup under its base name; --watch keeps the
registry in sync with the directory. With --data-dir the registry persists
across restarts.

Setting --jwt-secret requires an HS256 bearer token on every route except
/health and /metrics.`,
	Example: `  # Start with defaults on 127.0.0.1:8080
  schemagen serve

  # Serve a directory of schemas and reload on change
  schemagen serve --schemas-dir ./schemas --watch

  # Persistent registry, authenticated, rate limited
  schemagen serve --addr :9000 --data-dir ./data --jwt-secret "$SECRET" --rate-limit 20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sc := cfg.Server
		if sc.Addr != "" && sc.JWTSecret == "" && !isLoopback(sc.Addr) {
			output.Warn(cmd.ErrOrStderr(), "listening on %s without --jwt-secret; the API is unauthenticated", sc.Addr)
		}

		store, err := openStore(sc.DataDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close schema store", "error", err)
			}
		}()

		g, ctx := errgroup.WithContext(cmd.Context())

		if sc.SchemasDir != "" {
			n, err := storage.LoadDir(store, sc.SchemasDir, logger)
			if err != nil {
				return err
			}
			logger.Info("loaded schemas", "dir", sc.SchemasDir, "count", n)

			if sc.Watch {
				w, err := storage.NewWatcher(store, sc.SchemasDir, logger)
				if err != nil {
					return err
				}
				g.Go(func() error { return w.Run(ctx) })
			}
		}

		srv := server.New(server.Config{
			Addr:            sc.Addr,
			Store:           store,
			Logger:          logger,
			JWTSecret:       sc.JWTSecret,
			RateLimit:       sc.RateLimit,
			RateBurst:       sc.RateBurst,
			MaxCount:        sc.MaxCount,
			MaxLength:       sc.MaxLength,
			StreamRate:      sc.StreamRate,
			ShutdownTimeout: sc.Shutdown,
		})
		defer srv.Close()

		g.Go(func() error { return srv.ListenAndServe(ctx) })
		return g.Wait()
	},
}

func init() {
	defaults := cfg.Server
	f := serveCmd.Flags()
	f.StringVar(&serveFlagVals.addr, "addr", defaults.Addr, "Listen address")
	f.StringVar(&serveFlagVals.schemasDir, "schemas-dir", "", "Register every schema file in this directory")
	f.BoolVar(&serveFlagVals.watch, "watch", false, "Reload --schemas-dir on change")
	f.StringVar(&serveFlagVals.dataDir, "data-dir", "", "Persist the schema registry in this directory")
	f.StringVar(&serveFlagVals.jwtSecret, "jwt-secret", "", "Require HS256 bearer tokens signed with this secret")
	f.Float64Var(&serveFlagVals.rateLimit, "rate-limit", 0, "Requests per second per client (0 disables)")
	f.IntVar(&serveFlagVals.rateBurst, "rate-burst", 0, "Request burst per client (default twice the rate)")
	f.IntVar(&serveFlagVals.maxCount, "max-count", defaults.MaxCount, "Largest count accepted by generate endpoints")
	f.IntVar(&serveFlagVals.maxLength, "max-length", defaults.MaxLength, "Longest string or array generated per value")
	f.Float64Var(&serveFlagVals.streamRate, "stream-rate", defaults.StreamRate, "Default records per second on stream endpoints")

	bindConfig(serveCmd, map[string]string{
		"addr":        "server.addr",
		"schemas-dir": "server.schemas-dir",
		"watch":       "server.watch",
		"data-dir":    "server.data-dir",
		"jwt-secret":  "server.jwt-secret",
		"rate-limit":  "server.rate-limit",
		"rate-burst":  "server.rate-burst",
		"max-count":   "server.max-count",
		"max-length":  "server.max-length",
		"stream-rate": "server.stream-rate",
	})
	rootCmd.AddCommand(serveCmd)
}

func openStore(dataDir string) (storage.SchemaStore, error) {
	if dataDir == "" {
		return storage.NewInMemorySchemaStore(), nil
	}
	store, err := storage.OpenBadger(storage.BadgerConfig{Dir: dataDir, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("open schema store: %w", err)
	}
	logger.Info("opened schema store", "dir", dataDir)
	return store, nil
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
