package rest

import (
	"fmt"

	"github.com/unkn0wn-root/fincache"
)

// StatusError is a non-2xx response.
type StatusError struct {
	Status  int
	Message string // from the optional {"message": ...} body
	Method  string
	Path    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
}

func (e *StatusError) StatusCode() int       { return e.Status }
func (e *StatusError) ServerMessage() string { return e.Message }

var _ fincache.StatusError = (*StatusError)(nil)
