package httpapi

import "context"

// ReadyChecker is optionally implemented by dataset sources to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
