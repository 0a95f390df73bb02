package sync

import (
	"errors"
	"fmt"
)

// ErrSyncDeferred is returned when a full-guild sync request arrives while
// another one is in flight for the same guild. The request is coalesced into
// a single pending follow-up that runs right after the in-flight sync
// completes; it is never run concurrently and never silently dropped.
var ErrSyncDeferred = errors.New("full-guild sync already in progress, request coalesced")

// FailureReason classifies why a remote store call failed.
type FailureReason string

const (
	ReasonTimeout        FailureReason = "timeout"
	ReasonConnection     FailureReason = "connection_error"
	ReasonRemoteRejected FailureReason = "remote_rejected"
)

// Failure is the terminal outcome of a single sync call. Each call is
// attempted exactly once; a Failure is returned as a value so callers always
// run to completion and release their guards. StatusCode and Body are set
// only for ReasonRemoteRejected.
type Failure struct {
	Reason     FailureReason
	StatusCode int
	Body       string
	Err        error
}

func (f *Failure) Error() string {
	if f.Reason == ReasonRemoteRejected {
		return fmt.Sprintf("remote store rejected sync: status %d", f.StatusCode)
	}
	if f.Err != nil {
		return fmt.Sprintf("sync call failed (%s): %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("sync call failed (%s)", f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure unwraps err into a *Failure if it is one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
