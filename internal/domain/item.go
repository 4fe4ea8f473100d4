// Package domain holds the core types shared by the store, the deck syncer
// and the web facade.
package domain

import "time"

// DefaultCategory is assigned to items created without an explicit category.
const DefaultCategory = "default"

// MemoryItem is one learnable question/answer pair together with its
// scheduling state. Scheduling fields are owned by the scheduler and change
// only through a recorded review.
type MemoryItem struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`

	ReviewCount int     `json:"review_count"`
	Difficulty  int     `json:"difficulty"` // last quality rating, display only
	Easiness    float64 `json:"easiness"`
	Interval    float64 `json:"interval_days"`
	Mastered    bool    `json:"mastered"`

	CreatedAt    time.Time  `json:"created_at"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"` // nil before first review
	NextReview   time.Time  `json:"next_review"`

	// Fingerprint identifies deck-imported items for idempotent syncing.
	// Empty for manually added items. SourceID links back to the deck
	// source an imported item came from.
	Fingerprint string `json:"-"`
	SourceID    *int64 `json:"-"`
}

// ReviewEvent is one append-only record of a completed review.
type ReviewEvent struct {
	ID             int64     `json:"id"`
	ItemID         int64     `json:"item_id"`
	Quality        int       `json:"quality"`
	ResponseTimeMs *int      `json:"response_time_ms,omitempty"`
	ReviewedAt     time.Time `json:"reviewed_at"`
}
