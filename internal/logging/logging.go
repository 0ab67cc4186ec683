// Package logging sets up the process-wide zerolog logger. Stdout is
// reserved for the MCP JSON-RPC stream (cmd/codeintel relies on this), so
// every log line goes to stderr, mirroring the teacher binary's
// log.SetOutput(os.Stderr) discipline but with structured fields instead of
// the stdlib logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the root logger at the given level ("debug", "info", "warn",
// "error"); unrecognized levels fall back to info.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(output()).Level(lvl).With().Timestamp().Logger()
}

func output() io.Writer {
	if isTerminal(os.Stderr) {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	return os.Stderr
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// Component returns a sub-logger tagged with the owning component, used by
// every package (indexer, retriever, storage, mcp) to self-identify in logs.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
