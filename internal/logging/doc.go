// Package logging configures the process-wide slog logger.
//
// Logs are JSON on stderr. When a log file is configured the same records
// also go to a size-rotated file, which `dictionary logs` can tail and
// follow.
package logging
