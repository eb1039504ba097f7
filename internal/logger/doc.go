// Package logger wraps zap with a process-wide sugared logger, context
// helpers for scoping (ToContext/FromContext/WithName/WithKV) and level
// parsing. Call sites take a context and log through the scoped logger it
// carries, falling back to the global one.
package logger
