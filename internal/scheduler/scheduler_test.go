package scheduler

import (
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestNewState(t *testing.T) {
	s := NewState(t0)
	if s.ReviewCount != 0 {
		t.Errorf("ReviewCount = %d, want 0", s.ReviewCount)
	}
	assertFloat(t, "Easiness", s.Easiness, InitialEasiness)
	assertFloat(t, "Interval", s.Interval, 1)
	if s.Mastered {
		t.Error("new state must not be mastered")
	}
	if want := t0.Add(Day); !s.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", s.NextReview, want)
	}
	if !s.LastReviewed.IsZero() {
		t.Errorf("LastReviewed = %v, want zero", s.LastReviewed)
	}
}

// --- easiness factor ---

func TestReviewEasinessUpdate(t *testing.T) {
	cases := []struct {
		name    string
		prior   float64
		quality Quality
		want    float64
	}{
		{"perfect clamps at ceiling", 2.5, Perfect, 2.5},
		{"confident leaves max unchanged", 2.5, Confident, 2.5},
		{"recalled shrinks", 2.5, Recalled, 2.36},
		{"hazy shrinks more", 2.5, Hazy, 2.18},
		{"forgot shrinks most", 2.5, Forgot, 1.96},
		{"floor holds under forgot", 1.3, Forgot, 1.3},
		{"clamped to floor from just above", 1.4, Recalled, 1.3},
		{"midrange perfect grows", 2.0, Perfect, 2.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := State{ReviewCount: 3, Easiness: tc.prior, Interval: 10}
			got := Review(s, tc.quality, t0)
			assertFloat(t, "Easiness", got.Easiness, tc.want)
		})
	}
}

func TestReviewEasinessAlwaysInBounds(t *testing.T) {
	for _, ef := range []float64{1.3, 1.7, 2.0, 2.5} {
		for q := Forgot; q <= Perfect; q++ {
			got := Review(State{ReviewCount: 5, Easiness: ef, Interval: 4}, q, t0)
			if got.Easiness < MinEasiness || got.Easiness > MaxEasiness {
				t.Errorf("Review(ef=%v, q=%v).Easiness = %v, out of [%v, %v]",
					ef, q, got.Easiness, MinEasiness, MaxEasiness)
			}
		}
	}
}

// --- interval schedule ---

func TestReviewLapseResetsInterval(t *testing.T) {
	for _, q := range []Quality{Forgot, Hazy} {
		s := State{ReviewCount: 7, Easiness: 2.2, Interval: 120}
		got := Review(s, q, t0)
		assertFloat(t, "Interval", got.Interval, 1)
		if got.Mastered {
			t.Errorf("lapse with q=%v must not set mastered", q)
		}
		if want := t0.Add(Day); !got.NextReview.Equal(want) {
			t.Errorf("NextReview = %v, want %v", got.NextReview, want)
		}
	}
}

func TestReviewFirstSuccess(t *testing.T) {
	got := Review(NewState(t0), Recalled, t0)
	assertFloat(t, "Interval", got.Interval, 1)
	if got.ReviewCount != 1 {
		t.Errorf("ReviewCount = %d, want 1", got.ReviewCount)
	}
}

func TestReviewSecondSuccess(t *testing.T) {
	s := State{ReviewCount: 1, Easiness: 2.5, Interval: 1}
	got := Review(s, Confident, t0)
	assertFloat(t, "Interval", got.Interval, 6)
	if got.ReviewCount != 2 {
		t.Errorf("ReviewCount = %d, want 2", got.ReviewCount)
	}
}

func TestReviewLaterSuccessGrowsByEasiness(t *testing.T) {
	s := State{ReviewCount: 2, Easiness: 2.5, Interval: 6}
	got := Review(s, Perfect, t0)
	// ef' stays clamped at 2.5, so 6 * 2.5 = 15 days.
	assertFloat(t, "Interval", got.Interval, 15)
	if want := t0.Add(15 * Day); !got.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", got.NextReview, want)
	}
}

func TestReviewGrowthUsesUpdatedEasiness(t *testing.T) {
	s := State{ReviewCount: 4, Easiness: 2.5, Interval: 10}
	got := Review(s, Recalled, t0)
	// ef' = 2.5 - 0.14 = 2.36 applies to this interval, not the old ef.
	assertFloat(t, "Interval", got.Interval, 23.6)
}

func TestReviewIntervalCappedAtOneYear(t *testing.T) {
	s := State{ReviewCount: 12, Easiness: 2.5, Interval: 300}
	got := Review(s, Perfect, t0)
	assertFloat(t, "Interval", got.Interval, MaxIntervalDays)

	// Repeated perfect reviews never escape the cap.
	for i := 0; i < 5; i++ {
		got = Review(got, Perfect, t0)
		if got.Interval > MaxIntervalDays {
			t.Fatalf("Interval = %v after %d extra reviews, exceeds cap", got.Interval, i+1)
		}
	}
}

// --- mastery ---

func TestReviewMasteryFiresOnFifthConfidentReview(t *testing.T) {
	s := NewState(t0)
	now := t0
	for i := 1; i <= 5; i++ {
		s = Review(s, Perfect, now)
		if s.ReviewCount != i {
			t.Fatalf("ReviewCount = %d after review %d", s.ReviewCount, i)
		}
		wantMastered := i >= 5
		if s.Mastered != wantMastered {
			t.Fatalf("Mastered = %v after review %d, want %v", s.Mastered, i, wantMastered)
		}
		now = s.NextReview
	}
}

func TestReviewMasteryNeedsHighQuality(t *testing.T) {
	// Five successful but effortful reviews never master.
	s := NewState(t0)
	for i := 0; i < 6; i++ {
		s = Review(s, Recalled, t0)
	}
	if s.Mastered {
		t.Error("Recalled-grade reviews must not set mastered")
	}

	// The next Confident review does, since the count is already past five.
	s = Review(s, Confident, t0)
	if !s.Mastered {
		t.Error("Confident review past the count threshold should set mastered")
	}
}

func TestReviewMasteryIsMonotonic(t *testing.T) {
	s := State{ReviewCount: 9, Easiness: 2.0, Interval: 40, Mastered: true}
	for q := Forgot; q <= Perfect; q++ {
		if got := Review(s, q, t0); !got.Mastered {
			t.Errorf("Review(q=%v) cleared mastered", q)
		}
	}
}

// --- bookkeeping ---

func TestReviewBookkeeping(t *testing.T) {
	s := State{ReviewCount: 2, Easiness: 2.1, Interval: 6}
	got := Review(s, Hazy, t0)
	if got.Difficulty != int(Hazy) {
		t.Errorf("Difficulty = %d, want %d", got.Difficulty, int(Hazy))
	}
	if !got.LastReviewed.Equal(t0) {
		t.Errorf("LastReviewed = %v, want %v", got.LastReviewed, t0)
	}
	if got.ReviewCount != 3 {
		t.Errorf("ReviewCount = %d, want 3", got.ReviewCount)
	}
}

func TestReviewIsDeterministicAndPure(t *testing.T) {
	in := State{ReviewCount: 3, Easiness: 2.2, Interval: 12, Difficulty: 4}
	a := Review(in, Confident, t0)
	b := Review(in, Confident, t0)
	if a != b {
		t.Errorf("identical inputs gave %+v and %+v", a, b)
	}
	if in.ReviewCount != 3 || in.Interval != 12 {
		t.Error("Review modified its input state")
	}
}

func TestQuality(t *testing.T) {
	for q := Forgot; q <= Perfect; q++ {
		if !q.IsValid() {
			t.Errorf("%d should be valid", int(q))
		}
	}
	for _, q := range []Quality{0, 6, -1, 42} {
		if q.IsValid() {
			t.Errorf("%d should be invalid", int(q))
		}
	}
	if Hazy.Passing() || !Recalled.Passing() {
		t.Error("passing threshold should sit between Hazy and Recalled")
	}
	if got := Recalled.String(); got != "Recalled" {
		t.Errorf("String() = %q", got)
	}
	if got := Quality(9).String(); got != "Quality(9)" {
		t.Errorf("String() = %q", got)
	}
}
