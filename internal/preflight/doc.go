// Package preflight runs the startup checks behind "dictionary check".
//
// The package validates:
//   - Free disk space in the data directory (minimum 100MB)
//   - Write permissions in the data directory
//   - Whether another process holds the data directory lock
//   - File descriptor limits (minimum 1024)
//   - Broker reachability when the queue is enabled
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, preflight.Target{DataDir: "./data"})
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
