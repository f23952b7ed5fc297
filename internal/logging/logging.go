// Package logging configures the bot's structured logging on top of zerolog.
//
// Console output keeps timestamps short for people watching the process;
// json output is meant for log shippers.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// New builds the root logger. Unknown levels fall back to info; any format
// other than "json" renders for the console.
func New(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	zerolog.TimeFieldFormat = consoleTimeFormat
	zerolog.ErrorFieldName = "err"

	if strings.ToLower(strings.TrimSpace(format)) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a config string to a zerolog level.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Component derives a logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// CronLogger adapts zerolog to cron.Logger. Cron's info chatter goes to debug.
type CronLogger struct {
	log zerolog.Logger
}

var _ cron.Logger = CronLogger{}

func NewCronLogger(log zerolog.Logger) CronLogger {
	return CronLogger{log: Component(log, "cron")}
}

func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(normalize(keysAndValues)).Msg(msg)
}

func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(normalize(keysAndValues)).Msg(msg)
}

// normalize renders time values the way the rest of the log does.
func normalize(kv []interface{}) []interface{} {
	out := make([]interface{}, len(kv))
	for i, v := range kv {
		if t, ok := v.(time.Time); ok {
			out[i] = t.Format(consoleTimeFormat)
			continue
		}
		out[i] = v
	}
	return out
}
