/*
Package log provides structured logging for Scribe using zerolog.

The log package wraps the zerolog library to provide JSON-structured
logging with component-specific loggers, configurable log levels, and
helper functions for common logging patterns. All logs include
timestamps and support filtering by severity level.

# Usage

Initialize once at startup:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Then log directly or through a context logger:

	logger := log.WithComponent("storage")
	logger.Info().Str("session_id", id).Msg("session created")

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithSessionID: Add session ID context
  - WithCandidateID: Add candidate ID context

Console output (JSONOutput: false) is intended for local development;
production deployments should log JSON to stdout.
*/
package log
