// Package log builds the kernel's structured logger: kratos's log.Logger
// interface backed by zerolog for encoding, with an optional rotating file
// writer for long-running hosts. Grounded on go-lynx's app/log/logger.go,
// which wires the same two libraries together the same way.
package log

import (
	"io"
	"os"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is the minimum level that reaches the writer.
	Level zerolog.Level
	// FilePath, if non-empty, enables a rotating file writer alongside the
	// console writer.
	FilePath string
	// Pretty selects zerolog's human-friendly ConsoleWriter; false emits
	// structured JSON, appropriate when stdout is not a TTY.
	Pretty bool

	ServiceName    string
	ServiceVersion string
	Host           string
}

// zerologSink adapts a *zerolog.Logger to kratos's log.Logger interface so
// every kernel component can depend on log.Logger alone.
type zerologSink struct {
	z zerolog.Logger
}

var levelToZerolog = map[log.Level]zerolog.Level{
	log.LevelDebug: zerolog.DebugLevel,
	log.LevelInfo:  zerolog.InfoLevel,
	log.LevelWarn:  zerolog.WarnLevel,
	log.LevelError: zerolog.ErrorLevel,
	log.LevelFatal: zerolog.FatalLevel,
}

// Log implements log.Logger.
func (s *zerologSink) Log(level log.Level, keyvals ...interface{}) error {
	zl, ok := levelToZerolog[level]
	if !ok {
		zl = zerolog.InfoLevel
	}
	ev := s.z.WithLevel(zl)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, keyvals[i+1])
	}
	ev.Send()
	return nil
}

// New builds a kratos log.Logger, console-only or console+rotating-file
// depending on opts.FilePath, and wraps it with the service identity fields
// go-lynx's InitLogger attaches to every line (service.name/version/host).
func New(opts Options) log.Logger {
	var writers []io.Writer
	if opts.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		writers = append(writers, os.Stdout)
	}
	if opts.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    100, // megabytes
			MaxBackups: 7,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	multi := zerolog.MultiLevelWriter(writers...)
	z := zerolog.New(multi).Level(opts.Level).With().Timestamp().Logger()

	base := log.Logger(&zerologSink{z: z})
	return log.With(base,
		"service.name", opts.ServiceName,
		"service.version", opts.ServiceVersion,
		"service.host", opts.Host,
		"caller", log.DefaultCaller,
	)
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() log.Logger { return log.NewStdLogger(io.Discard) }

// ParseLevel maps the kernel's logging-level flag values
// (off|trace|debug|info|warn|error) onto a zerolog.Level, treating "off" and
// "trace" the way the console writer can actually represent them: off maps
// to a level above Fatal (nothing is written), trace maps to zerolog's Trace
// level.
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "off":
		return zerolog.Disabled
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
