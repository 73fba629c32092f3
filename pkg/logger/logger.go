package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Init sets up a default logger before configuration is loaded. Call
// InitStructured once the environment is known.
func Init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zlog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// Info logs a printf-style message at info level
func Info(format string, args ...interface{}) {
	zlog.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn logs a printf-style message at warn level
func Warn(format string, args ...interface{}) {
	zlog.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs a printf-style message at error level
func Error(format string, args ...interface{}) {
	zlog.Error().Msg(fmt.Sprintf(format, args...))
}
