// Package logging configures the log/slog loggers used across schemagen.
//
//	logger, closer, err := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	logger.Info("generated records", "schema", "user", "count", 10)
//
// Text output is meant for terminals, JSON for log shippers. When Config.File
// is set, records are written to both Output and the file through a
// MultiHandler.
//
// Components take a *slog.Logger in their constructor or options and fall
// back to Nop() when none is given.
package logging
