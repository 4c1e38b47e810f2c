package internal

import (
	"io"
	"log/slog"
	"os"
)

// Option configures Run, Play, ServeMCP and the transfer commands.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	logger    *slog.Logger
}

func newApplication(opts []Option) *application {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// newLogger returns the injected logger, or a JSON logger on logOutput at
// the configured level. The result becomes the slog default.
func (a *application) newLogger() *slog.Logger {
	logger := a.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
			Level: a.config.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)
	return logger
}

// WithConfig sets the application configuration. It is required.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput redirects the JSON log. Commands that own stdout (the MCP
// stdio transport, the play host) log to stderr or a file instead.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithLogger replaces the JSON logger entirely; WithLogOutput is then
// ignored.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}
