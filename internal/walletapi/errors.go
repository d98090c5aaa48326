package walletapi

import (
	"errors"
	"fmt"
)

// ErrMissingStatus marks an evaluation response that lacks the status field.
// A verdict without a status is never treated as an approval.
var ErrMissingStatus = errors.New("evaluation verdict has no status")

// RequestError means the backend could not be reached at all
// (connectivity, DNS, timeout). The call may be retried by the user.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("wallet api %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// StatusError means the backend answered with a non-2xx status. Body carries
// the backend's error payload verbatim so it can be shown to the user.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("wallet api %s: http %d", e.Op, e.Code)
	}
	return fmt.Sprintf("wallet api %s: http %d: %s", e.Op, e.Code, e.Body)
}
