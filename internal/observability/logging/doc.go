// Package logging provides structured logging utilities built on log/slog.
//
// A single logger is built in main from LOG_LEVEL and LOG_FORMAT, tagged with
// the run id, and handed to every component constructor.
//
// Example usage:
//
//	logger := logging.WithRunID(logging.New(logging.OptionsFromEnv()), logging.NewRunID())
//	logger.Info("run started", slog.String("feed", feedURL))
package logging
