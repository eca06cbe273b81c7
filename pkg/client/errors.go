package client

import (
	"errors"
	"fmt"
)

// ErrServer is returned when the server answers success=false.
var ErrServer = errors.New("timelens: server reported failure")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("timelens: HTTP %d", e.Code)
	}
	return fmt.Sprintf("timelens: HTTP %d: %s", e.Code, e.Body)
}
