// Package credential stores the bearer token attached to backend requests.
package credential

import "errors"

// ErrNoToken is returned when a request needs a token and none is stored.
var ErrNoToken = errors.New("credential: no token")

// Store holds at most one token. Implementations must be safe for
// concurrent use.
type Store interface {
	Token() (string, bool)
	SetToken(token string) error
	// Clear removes the token. Clearing an empty store is not an error.
	Clear() error
}
