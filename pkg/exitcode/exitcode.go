// Package exitcode provides standardized exit codes for the publisher CLI
package exitcode

// Exit codes for the publisher CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3
	FileSystemError = 4
	NetworkError    = 5
	PublishBlocked  = 6
	TimeoutError    = 7
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case NetworkError:
		return "Network error"
	case PublishBlocked:
		return "Publish blocked"
	case TimeoutError:
		return "Timeout error"
	default:
		return "Unknown error"
	}
}
