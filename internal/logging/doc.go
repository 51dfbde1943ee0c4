// Package logging provides a simple leveled logging interface for the
// pose browser.
//
// It supports the following log levels:
//   - VERBOSE: Per-document and per-frame tracing
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is read from POSE_BROWSER_LOG_LEVEL, falling back to
// LOG_LEVEL. DEBUG=true forces the debug level.
package logging
