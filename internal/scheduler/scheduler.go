// Package scheduler implements the SM-2 family spaced-repetition update
// rule: given an item's scheduling state and a recall quality rating, it
// produces the new state and the next review time. It is pure and does no
// I/O; persistence belongs to the storage package.
package scheduler

import (
	"math"
	"time"
)

// Bounds of the scheduling state. Easiness controls how fast intervals grow
// and stays within [MinEasiness, MaxEasiness] at all times; intervals are
// measured in days and never exceed MaxIntervalDays.
const (
	MinEasiness     = 1.3
	MaxEasiness     = 2.5
	InitialEasiness = 2.5
	MaxIntervalDays = 365.0
)

const (
	firstInterval  = 1.0
	secondInterval = 6.0

	// An item is mastered once a review rated Confident or better brings
	// its completed-review count to masteryReviews.
	masteryQuality = Confident
	masteryReviews = 5
)

// Day is the unit the interval arithmetic works in.
const Day = 24 * time.Hour

// State is the scheduling state of one item. The zero value is not
// meaningful; use NewState for freshly created items.
type State struct {
	ReviewCount  int
	Easiness     float64
	Interval     float64 // days until next review
	Difficulty   int     // last quality rating, carried for display
	Mastered     bool
	LastReviewed time.Time // zero until the first review
	NextReview   time.Time
}

// NewState returns the state assigned to an item at creation time: no
// reviews yet, maximum easiness, and a first review due one day out.
func NewState(now time.Time) State {
	return State{
		Easiness:   InitialEasiness,
		Interval:   firstInterval,
		Difficulty: 1,
		NextReview: now.Add(Day),
	}
}

// Review applies one review rated q at time now and returns the updated
// state. The input state is not modified. q is assumed valid (see
// Quality.IsValid); callers validate ratings before invoking Review.
//
// The update follows SM-2:
//
//	ef' = ef + (0.1 - (5-q)*(0.08 + (5-q)*0.02)), clamped to [1.3, 2.5]
//
// A lapse (q < Recalled) resets the interval to one day. Otherwise the
// first and second successful reviews use fixed intervals of 1 and 6 days,
// and later ones grow by the new easiness factor, capped at a year.
// Mastery is monotonic: once set it survives every later review.
func Review(s State, q Quality, now time.Time) State {
	spread := float64(Perfect - q)
	ef := clamp(s.Easiness+(0.1-spread*(0.08+spread*0.02)), MinEasiness, MaxEasiness)

	var interval float64
	switch {
	case !q.Passing():
		interval = firstInterval
	case s.ReviewCount == 0:
		interval = firstInterval
	case s.ReviewCount == 1:
		interval = secondInterval
	default:
		interval = math.Min(s.Interval*ef, MaxIntervalDays)
	}

	count := s.ReviewCount + 1

	return State{
		ReviewCount:  count,
		Easiness:     ef,
		Interval:     interval,
		Difficulty:   int(q),
		Mastered:     s.Mastered || (q >= masteryQuality && count >= masteryReviews),
		LastReviewed: now,
		NextReview:   now.Add(IntervalDuration(interval)),
	}
}

// IntervalDuration converts an interval in (possibly fractional) days to a
// time.Duration.
func IntervalDuration(days float64) time.Duration {
	return time.Duration(days * float64(Day))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
