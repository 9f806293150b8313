package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the console logger every prover/verifier entry point
// shares: timestamped, human-readable while developing, trivially
// switched to JSON in production by swapping the writer.
func NewLogger(component string) zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).With().Timestamp().Str("component", component).Logger()
}

// StageTimer logs how long a named stage of the prover/verifier pipeline
// took, the shape used around trace building, LDE, and FRI.
func StageTimer(log zerolog.Logger, stage string) func() {
	start := time.Now()
	log.Debug().Str("stage", stage).Msg("starting")
	return func() {
		log.Info().Str("stage", stage).Dur("elapsed", time.Since(start)).Msg("completed")
	}
}
