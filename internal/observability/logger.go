package observability

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger tags the global logger with the application name and a fresh
// run id. logging.Configure* must run first to choose sinks and level.
func InitLogger(app string) zerolog.Logger {
	logger := log.Logger.With().
		Str("app", app).
		Str("run_id", uuid.NewString()).
		Logger()
	log.Logger = logger
	return logger
}
