package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Store errors
	ErrNotFound = fmt.Errorf("not found")
	ErrConflict = fmt.Errorf("conflict")

	// Download errors
	ErrUnsupportedSource = fmt.Errorf("not a supported source")
	ErrToolOutdated      = fmt.Errorf("download tool is out of date")
	ErrFetchFailed       = fmt.Errorf("fetch failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ExitToolUpdate is the process exit status asking the launch wrapper to upgrade the download tool and restart.
const ExitToolUpdate = 100
