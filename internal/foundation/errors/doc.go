// Package errors provides the classified error primitives used across sitemirror.
//
// Every failure that can stop a build is expressed as a ClassifiedError so the
// CLI can choose an exit code and a user-facing message without inspecting
// strings.
//
// Key features:
//   - ErrorCategory: broad classification (config, filesystem, transform, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: structured error with category, severity, cause and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and presentation for the command line
//
// Example usage:
//
//	err := errors.TransformError("markdown transform failed").
//		WithContext("file", desc.OriginalPath).
//		WithContext("transform", desc.TransformID).
//		WithCause(cause).
//		Build()
package errors
