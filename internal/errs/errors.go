package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	// ErrFileAccess is returned when the dataset file is missing or unreadable.
	ErrFileAccess = errors.New("file_access")
	// ErrMalformedRow flags a data row whose column count differs from the
	// header, or that is not valid UTF-8.
	ErrMalformedRow = errors.New("malformed_row")
	// ErrConfig wraps configuration file parse failures.
	ErrConfig = errors.New("config")
	// ErrUnsupportedSource is returned for an unknown dataset source name.
	ErrUnsupportedSource = errors.New("unsupported_source")
	// ErrInvalid marks a configuration value that cannot be used, such as a bad port.
	ErrInvalid = errors.New("invalid")
)
