package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

// InitLogger tags the global logger with the app name and a fresh run id.
// It expects logging.Configure to have installed the writer already.
func InitLogger(app string) (zerolog.Logger, string) {
	runID := ksuid.New().String()
	logger := log.Logger.With().Str("app", app).Str("run_id", runID).Logger()
	log.Logger = logger
	return logger, runID
}
