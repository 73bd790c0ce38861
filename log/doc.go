// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("script loaded", slog.String("file", path))
//
// The zero [Logger] discards everything, so components can hold one
// without checking whether logging was configured.
//
// # Configuration
//
// Configure the logger using functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// [Logger.Wrap] derives a logger from an existing configuration.
// The package-level functions ([Info], [DebugContext], ...) log through a
// default logger that [Config] reconfigures.
//
// # Levels
//
// In addition to the four [log/slog] levels the package defines
// [LevelTrace], rendered as TRACE, for per-token and per-node output.
//
// # Output Formats
//
// [FormatText] (default) and [FormatJSON] are supported. With [WithPretty]
// enabled, output is colorized when the writer is a terminal and JSON
// records are printed one field per line.
package log
