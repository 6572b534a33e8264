// Package clock provides an injectable source of time and randomness so the
// engine's scheduling and cooldown behavior can be driven
// deterministically from tests.
package clock

import (
	"math/rand/v2"
	"time"
)

// Clock abstracts wall-clock time and sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
	After(d time.Duration) <-chan time.Time
}

// Rand abstracts a random source for jitter. No code path in this module
// draws from it: httpvenue's websocket reconnect waits a fixed 5s.
type Rand interface {
	Float64() float64
}

// Real is the production Clock backed by the time package.
type Real struct{}

func (Real) Now() time.Time                       { return time.Now() }
func (Real) Sleep(d time.Duration)                { time.Sleep(d) }
func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealRand is the production Rand backed by math/rand/v2.
type RealRand struct{}

func (RealRand) Float64() float64 { return rand.Float64() }
