package scheduler

import "fmt"

// Quality is the user's self-rated recall score for one review.
type Quality int

const (
	Forgot    Quality = 1 // no recall at all
	Hazy      Quality = 2 // vague recollection, answer not produced
	Recalled  Quality = 3 // recalled with real effort
	Confident Quality = 4 // recalled with minor hesitation
	Perfect   Quality = 5 // instant, effortless recall
)

var qualityNames = [...]string{
	Forgot:    "Forgot",
	Hazy:      "Hazy",
	Recalled:  "Recalled",
	Confident: "Confident",
	Perfect:   "Perfect",
}

// IsValid reports whether q is within the 1..5 rating scale.
func (q Quality) IsValid() bool {
	return q >= Forgot && q <= Perfect
}

// Passing reports whether q counts as a successful recall. Anything below
// Recalled is a lapse and restarts the interval curve.
func (q Quality) Passing() bool {
	return q >= Recalled
}

// String returns the rating's name, or "Quality(n)" for invalid values.
func (q Quality) String() string {
	if q.IsValid() {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}
