package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrLookupFailed is matched by every geocoding failure: transport errors,
// timeouts, empty result sets and malformed payloads alike.
var ErrLookupFailed = errors.New("geocode lookup failed")

// Geocoder resolves a free-text address to coordinates with one outbound call.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

// LookupError carries the cause of a failed lookup for logging while still
// matching ErrLookupFailed.
type LookupError struct {
	Address string
	Reason  string // "error", "empty" or "disabled"
	Err     error
}

// NewLookupError wraps err as a lookup failure for address.
func NewLookupError(address, reason string, err error) *LookupError {
	return &LookupError{Address: address, Reason: reason, Err: err}
}

func (e *LookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %q", ErrLookupFailed, e.Address)
	}
	return fmt.Sprintf("%s: %q: %v", ErrLookupFailed, e.Address, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

func (e *LookupError) Is(target error) bool { return target == ErrLookupFailed }
