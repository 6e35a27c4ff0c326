// Package logger wraps zerolog for devstrap's diagnostic output. Operator
// facing progress goes through internal/report; this is the stderr channel
// that --verbose turns up.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	NoColor       bool
	Writer        io.Writer
}

// Logger wraps zerolog to provide a simplified API for the application.
type Logger struct {
	base zerolog.Logger
}

// New creates a Logger. Output defaults to stderr so stdout stays reserved
// for the reporter and streamed apt output.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var output io.Writer = writer
	if opts.HumanReadable {
		output = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		}
	}

	return &Logger{base: zerolog.New(output).Level(level).With().Timestamp().Logger()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// zl lets every method work on a nil *Logger.
func (l *Logger) zl() *zerolog.Logger {
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return &l.base
}

func (l *Logger) derive(ctx zerolog.Context) *Logger {
	return &Logger{base: ctx.Logger()}
}

// WithFields returns a derived logger that always writes the supplied fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return l.derive(l.zl().With().Fields(fields))
}

// WithRun tags every entry with the run id and whether the run is a dry run.
func (l *Logger) WithRun(runID string, dryRun bool) *Logger {
	return l.derive(l.zl().With().Str("run_id", runID).Bool("dry_run", dryRun))
}

// WithStep tags entries with a step id and type.
func (l *Logger) WithStep(id, stepType string) *Logger {
	return l.derive(l.zl().With().Str("step", id).Str("type", stepType))
}

// Exec records a child process at debug level. kind is "exec" for
// mutations and "probe" for read-only queries.
func (l *Logger) Exec(kind string, argv []string) {
	l.zl().Debug().Str("kind", kind).Strs("argv", argv).Msg(kind + " " + strings.Join(argv, " "))
}

func (l *Logger) Info(msg string) { l.zl().Info().Msg(msg) }

func (l *Logger) Infof(format string, args ...any) { l.zl().Info().Msgf(format, args...) }

func (l *Logger) Debug(msg string) { l.zl().Debug().Msg(msg) }

func (l *Logger) Debugf(format string, args ...any) { l.zl().Debug().Msgf(format, args...) }

func (l *Logger) Warn(msg string) { l.zl().Warn().Msg(msg) }

// Error logs msg with err attached when it is non-nil.
func (l *Logger) Error(err error, msg string) {
	l.zl().Error().Err(err).Msg(msg)
}
