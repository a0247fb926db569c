package errors

import "fmt"

// SyntaxError creates an annotation syntax error at loc
func SyntaxError(loc SourceLocation, format string, args ...interface{}) *BaseError {
	return Newf(SyntaxErrorCode, format, args...).WithLocation(loc)
}

// SchemaError creates an annotation schema violation at loc
func SchemaError(loc SourceLocation, directive, format string, args ...interface{}) *BaseError {
	return Newf(SchemaErrorCode, format, args...).
		WithLocation(loc).
		WithContext("directive", directive)
}

// WrapSourceError wraps a Go parse failure
func WrapSourceError(path string, cause error) *BaseError {
	return Wrap(SourceErrorCode, fmt.Sprintf("failed to parse %s", path), cause).
		WithContext("path", path).
		WithSuggestion("Run 'go vet' on the package to locate the syntax error")
}

// WrapFileSystemError wraps a file system error with operation context
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	return Wrap(FileSystemErrorCode, fmt.Sprintf("failed to %s %s", operation, path), cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps a configuration error
func WrapConfigurationError(configFile, operation string, cause error) *BaseError {
	return Wrap(ConfigurationErrorCode, fmt.Sprintf("failed to %s configuration %s", operation, configFile), cause).
		WithContext("config", configFile).
		WithContext("operation", operation)
}

// ConfigurationError creates a configuration error
func ConfigurationError(configFile, message string) *BaseError {
	return New(ConfigurationErrorCode, message).
		WithContext("config", configFile)
}

// WrapModuleError wraps a go.mod resolution failure
func WrapModuleError(dir string, cause error) *BaseError {
	return Wrap(ModuleResolutionErrorCode, fmt.Sprintf("failed to resolve module for %s", dir), cause).
		WithContext("dir", dir).
		WithSuggestion("Run bindplan inside a Go module or pass -module")
}

// WrapOutputError wraps a report writing failure
func WrapOutputError(format, target string, cause error) *BaseError {
	return Wrap(OutputErrorCode, fmt.Sprintf("failed to write %s report to %s", format, target), cause).
		WithContext("format", format)
}
