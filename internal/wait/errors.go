// internal/wait/errors.go
package wait

import (
	"fmt"
	"time"
)

// TimeoutError reports a wait whose deadline elapsed before its condition held.
// Target is the locator or condition description, LastState the last thing the
// poller observed (e.g. "present but hidden"), and Cause the last swallowed
// transient error, if any.
type TimeoutError struct {
	Target    string
	Timeout   time.Duration
	Elapsed   time.Duration
	LastState string
	Cause     error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s (limit %s) waiting for %s", e.Elapsed.Round(time.Millisecond), e.Timeout, e.Target)
	if e.LastState != "" {
		msg += "; last state: " + e.LastState
	}
	if e.Cause != nil {
		msg += "; last error: " + e.Cause.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Cause }
