package model

import "errors"

// Invariant-violation errors rejected at the API boundary; these never enter
// the main loop. Generalized from the teacher's clients/common/struct.go
// sentinel errors, which were per-exchange; these are venue-agnostic.
var (
	ErrInvariant        = errors.New("invariant violation")
	ErrInvalidPair      = errors.New("invalid trading pair")
	ErrPositionNotFound = errors.New("position not found")
)
