// Package logger provides structured logging for the profile analytics
// service, wrapping zerolog behind a small interface.
//
// The global instance is configured once at startup:
//
//	err := logger.Initialize(&cfg.Logging)
//
// and retrieved anywhere with logger.GetLogger(). Components that want
// scoped fields derive a child logger:
//
//	log := logger.WithField("component", "tracker")
//	log.InfoWithFields("refresh complete", map[string]interface{}{
//	    "records": len(records),
//	    "errors":  len(errs),
//	})
//
// Console output is pretty-printed through zerolog.ConsoleWriter; when a
// log file is configured, entries are mirrored to it as JSON lines.
package logger
