package errors

// Exit codes returned by the relkit CLI. Kept symbolic so wrapper scripts can
// check them without magic numbers.
const (
	ExitSuccess     = 0 // command completed (including a declined confirmation)
	ExitFailure     = 1 // task failed at runtime
	ExitConfigError = 2 // invalid configuration or usage
	ExitEnvError    = 3 // environment error (toolchain missing)
)

// ExitCodeFor determines the appropriate exit code for an error.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	rke, ok := err.(*RelKitError)
	if !ok {
		return ExitFailure
	}

	switch rke.Category {
	case CategoryConfig, CategoryValidation:
		return ExitConfigError
	case CategoryToolchain:
		return ExitEnvError
	default:
		return ExitFailure
	}
}
