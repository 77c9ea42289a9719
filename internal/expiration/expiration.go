// Package expiration holds the expiration rules shared by the local and remote
// engines: the 120 minute default lifetime, the minute-count overload, the
// half-remaining default sliding window and the effective time to live.
package expiration

import (
	"time"
)

const (
	// DefaultDuration is the lifetime of an entry inserted without an
	// absolute expiration.
	DefaultDuration = 120 * time.Minute

	// DefaultLockExpiration is the lifetime of a lock acquired without an
	// explicit expiration.
	DefaultLockExpiration = 2 * time.Minute

	// minSliding keeps a derived sliding window positive.
	minSliding = time.Nanosecond
)

// Absolute returns abs, or now+DefaultDuration when abs is the zero time.
func Absolute(now, abs time.Time) time.Time {
	if abs.IsZero() {
		return now.Add(DefaultDuration)
	}
	return abs
}

// FromMinutes converts a minute count into an absolute deadline. Non-positive
// counts fall back to DefaultDuration.
func FromMinutes(now time.Time, minutes int) time.Time {
	if minutes <= 0 {
		return now.Add(DefaultDuration)
	}
	return now.Add(time.Duration(minutes) * time.Minute)
}

// Sliding returns sliding when positive. Otherwise the window defaults to half
// of the time remaining until abs, never less than one nanosecond.
func Sliding(now, abs time.Time, sliding time.Duration) time.Duration {
	if sliding > 0 {
		return sliding
	}
	half := abs.Sub(now) / 2
	if half < minSliding {
		return minSliding
	}
	return half
}

// Resolve applies Absolute and Sliding in one step.
func Resolve(now, abs time.Time, sliding time.Duration) (time.Time, time.Duration) {
	abs = Absolute(now, abs)
	return abs, Sliding(now, abs, sliding)
}

// TTL is the time an entry may live from now: the lesser of the time left
// until abs and the sliding window. A zero abs or non-positive sliding counts
// as absent. ok is false when neither bound is present. The returned duration
// may be zero or negative when abs has already passed.
func TTL(now, abs time.Time, sliding time.Duration) (ttl time.Duration, ok bool) {
	hasAbs := !abs.IsZero()
	hasSliding := sliding > 0

	switch {
	case hasAbs && hasSliding:
		remaining := abs.Sub(now)
		if remaining < sliding {
			return remaining, true
		}
		return sliding, true
	case hasAbs:
		return abs.Sub(now), true
	case hasSliding:
		return sliding, true
	default:
		return 0, false
	}
}

// Lock returns exp, or DefaultLockExpiration when exp is not positive.
func Lock(exp time.Duration) time.Duration {
	if exp <= 0 {
		return DefaultLockExpiration
	}
	return exp
}
