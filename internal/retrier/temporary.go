package retrier

import (
	"errors"
	"net"
)

// Temporary indicates if an error condition is temporary and may succeed if retried.
type Temporary interface {
	Temporary() bool
}

// IsTemporary checks if the provided error implements the Temporary interface
// or is a network timeout.
func IsTemporary(err error) bool {
	var temp Temporary
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
