package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *RelKitError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *RelKitError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Task execution errors

func ToolNotInstalled(bin string) *RelKitError {
	return New(CategoryToolchain, SeverityFatal, "required tool not found in PATH").
		WithContext("tool", bin)
}

func ToolFailed(bin string, exitCode int, cause error) *RelKitError {
	return Wrap(cause, CategoryTool, SeverityFatal, "external tool failed").
		WithContext("tool", bin).
		WithContext("exit_code", exitCode)
}

func CleanFailed(path string, cause error) *RelKitError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "output directory removal failed").
		WithContext("path", path)
}

func PublishFailed(artifact string, cause error) *RelKitError {
	return Wrap(cause, CategoryPublish, SeverityFatal, "artifact publication failed").
		WithContext("artifact", artifact)
}
