// Package logger wraps zap with a process-wide sugared logger, level parsing
// and context helpers. Components take a context and log through it, so the
// scheduler can scope every line with the component name.
package logger
