package portal

import "fmt"

// RemoteError reports a failed portal call: either a transport error or
// a non-success HTTP status. The orchestrator drops the owning week and
// carries on; a RemoteError never aborts a whole refresh.
type RemoteError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("portal %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("portal %s: unexpected status %d", e.Endpoint, e.Status)
}

func (e *RemoteError) Unwrap() error { return e.Err }
