// Package logger configures the global zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoadEnv loads a .env file from the working directory when one exists.
// A missing file is not an error.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// Init points the global logger at a console writer on w (stderr when nil)
// and sets the global level. Unknown level names fall back to info.
//
// Example usage:
//
//	logger.Init("debug", nil) <- inside the command's pre-run hook
func Init(level string, w io.Writer) zerolog.Level {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w}).With().Caller().Logger()

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Debug().Str("level", lvl.String()).Msg("logger initialized")
	return lvl
}
