package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned (possibly wrapped) by a DataProvider when the
	// requested node does not exist. Any other provider error is treated as
	// transient.
	ErrNotFound = errors.New("node not found")

	// ErrSuperseded is returned by FocusOn when a newer focus request
	// replaced the pass before it finished fetching. The committed portion
	// of the pass remains valid; the newer pass cleans up the rest.
	ErrSuperseded = errors.New("synchronization pass superseded")
)

// DataFetchError reports that the data for one cluster could not be fetched
// during a synchronization pass. The pass skips that cluster and keeps the
// previously committed scene state intact, so the error is recoverable:
// callers may retry the same focus change.
type DataFetchError struct {
	Cluster   NodeID
	Transient bool
	Err       error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("fetching cluster %d: %v", e.Cluster, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }
