package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. Prod emits JSON lines; everything else gets
// the human console writer.
func New(env, component string) zerolog.Logger {
	var logger zerolog.Logger
	if env == "prod" {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.With().Str("component", component).Logger()
}
