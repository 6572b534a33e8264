package venue

import (
	"errors"
	"fmt"
)

// Sentinel error kinds a connector's errors should wrap, so the executor and
// main loop can classify a failure without string-matching. Generalizes the
// teacher's clients/common/struct.go sentinel vars (which were fine-grained
// per exchange) into the three-way taxonomy spec.md §7 describes.
var (
	// ErrTransient covers network failures, timeouts, and rate limiting.
	// The caller should treat this as a per-leg failure and may retry the
	// surrounding operation (not the same call) later.
	ErrTransient = errors.New("venue: transient failure")

	// ErrRejected covers a well-formed request the venue refused (e.g.
	// insufficient balance reported by the venue itself). Not retried
	// within the same trade.
	ErrRejected = errors.New("venue: rejected")

	// ErrInvariant covers a request that should never have been built,
	// e.g. an unparseable symbol. Raised at the API boundary only.
	ErrInvariant = errors.New("venue: invariant violation")
)

// Transient wraps err so errors.Is(err, ErrTransient) succeeds.
func Transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
}

// Rejected wraps err so errors.Is(err, ErrRejected) succeeds.
func Rejected(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrRejected, err)
}

// Invariant wraps err so errors.Is(err, ErrInvariant) succeeds.
func Invariant(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrInvariant, err)
}

// IsTransient reports whether err is (or wraps) a transient failure.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// IsRejected reports whether err is (or wraps) a venue rejection.
func IsRejected(err error) bool { return errors.Is(err, ErrRejected) }
