// Package storage persists memory items, their review history, and deck
// sources in a single sqlite database.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/scheduler"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// Store wraps the database connection. Write operations are serialized
// through a mutex so read-modify-write sequences stay consistent.
type Store struct {
	conn *sql.DB
	mu   sync.Mutex
	now  func() time.Time
}

// Open creates a database connection and ensures the schema is in place.
// The dsn is a file path, or ":memory:" for a throwaway database.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer, and one pooled connection also keeps
	// a :memory: database from splitting into one database per connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{
		conn: conn,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// SetClock replaces the store's time source. Tests use it to move items
// in and out of the due window.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

const itemColumns = `id, question, answer, category, review_count, difficulty,
	easiness, interval_days, mastered, created_at, last_reviewed, next_review,
	fingerprint, source_id`

// CreateItem stores a new item with fresh scheduling state and returns it
// with its assigned id. Question and answer must be non-empty; a blank
// category falls back to domain.DefaultCategory. Imported items arrive
// with Fingerprint and SourceID set, hand-added ones leave them empty.
func (s *Store) CreateItem(item domain.MemoryItem) (domain.MemoryItem, error) {
	item.Question = strings.TrimSpace(item.Question)
	item.Answer = strings.TrimSpace(item.Answer)
	if item.Question == "" || item.Answer == "" {
		return domain.MemoryItem{}, ErrEmptyContent
	}
	item.Category = strings.TrimSpace(item.Category)
	if item.Category == "" {
		item.Category = domain.DefaultCategory
	}

	now := s.now()
	seed := scheduler.NewState(now)
	item.ReviewCount = seed.ReviewCount
	item.Difficulty = seed.Difficulty
	item.Easiness = seed.Easiness
	item.Interval = seed.Interval
	item.Mastered = seed.Mastered
	item.CreatedAt = now
	item.LastReviewed = nil
	item.NextReview = seed.NextReview

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.Exec(`
		INSERT INTO memory_items (question, answer, category, review_count, difficulty,
			easiness, interval_days, mastered, created_at, last_reviewed, next_review,
			fingerprint, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)
	`,
		item.Question,
		item.Answer,
		item.Category,
		item.ReviewCount,
		item.Difficulty,
		item.Easiness,
		item.Interval,
		item.Mastered,
		item.CreatedAt,
		item.NextReview,
		nullString(item.Fingerprint),
		nullInt64(item.SourceID),
	)
	if err != nil {
		return domain.MemoryItem{}, fmt.Errorf("failed to insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.MemoryItem{}, fmt.Errorf("failed to get inserted item id: %w", err)
	}
	item.ID = id
	return item, nil
}

// DueItems returns at most limit unmastered items whose next review time
// has arrived, soonest first.
func (s *Store) DueItems(limit int) ([]domain.MemoryItem, error) {
	rows, err := s.conn.Query(`
		SELECT `+itemColumns+`
		FROM memory_items
		WHERE mastered = 0 AND next_review <= ?
		ORDER BY next_review ASC, id ASC
		LIMIT ?
	`, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// AllItems returns every item newest first, or only those in the given
// category when it is non-empty.
func (s *Store) AllItems(category string) ([]domain.MemoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM memory_items`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// RecordReview grades an item, advances its schedule, and appends a row
// to the review history. The updated item is returned. responseTimeMs is
// optional and stored for later inspection only.
func (s *Store) RecordReview(id int64, quality scheduler.Quality, responseTimeMs *int) (domain.MemoryItem, error) {
	if !quality.IsValid() {
		return domain.MemoryItem{}, scheduler.ErrInvalidQuality
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return domain.MemoryItem{}, fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := scanItem(tx.QueryRow(`SELECT `+itemColumns+` FROM memory_items WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MemoryItem{}, ErrNotFound
		}
		return domain.MemoryItem{}, fmt.Errorf("failed to load item %d: %w", id, err)
	}

	now := s.now()
	next := scheduler.Review(scheduler.State{
		ReviewCount: item.ReviewCount,
		Easiness:    item.Easiness,
		Interval:    item.Interval,
		Difficulty:  item.Difficulty,
		Mastered:    item.Mastered,
	}, quality, now)

	if _, err := tx.Exec(`
		UPDATE memory_items
		SET review_count = ?, difficulty = ?, easiness = ?, interval_days = ?,
			mastered = ?, last_reviewed = ?, next_review = ?
		WHERE id = ?
	`,
		next.ReviewCount,
		next.Difficulty,
		next.Easiness,
		next.Interval,
		next.Mastered,
		next.LastReviewed,
		next.NextReview,
		id,
	); err != nil {
		return domain.MemoryItem{}, fmt.Errorf("failed to update item %d: %w", id, err)
	}

	if _, err := tx.Exec(`
		INSERT INTO review_history (item_id, quality, response_time_ms, reviewed_at)
		VALUES (?, ?, ?, ?)
	`, id, int(quality), nullIntPtr(responseTimeMs), now); err != nil {
		return domain.MemoryItem{}, fmt.Errorf("failed to record history for item %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return domain.MemoryItem{}, fmt.Errorf("failed to commit review: %w", err)
	}

	item.ReviewCount = next.ReviewCount
	item.Difficulty = next.Difficulty
	item.Easiness = next.Easiness
	item.Interval = next.Interval
	item.Mastered = next.Mastered
	reviewed := next.LastReviewed
	item.LastReviewed = &reviewed
	item.NextReview = next.NextReview
	return item, nil
}

// History returns an item's recorded reviews, oldest first. An unknown
// id simply has no history.
func (s *Store) History(itemID int64) ([]domain.ReviewEvent, error) {
	rows, err := s.conn.Query(`
		SELECT id, item_id, quality, response_time_ms, reviewed_at
		FROM review_history
		WHERE item_id = ?
		ORDER BY reviewed_at ASC, id ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for item %d: %w", itemID, err)
	}
	defer rows.Close()

	var events []domain.ReviewEvent
	for rows.Next() {
		var (
			ev domain.ReviewEvent
			rt sql.NullInt64
		)
		if err := rows.Scan(&ev.ID, &ev.ItemID, &ev.Quality, &rt, &ev.ReviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if rt.Valid {
			v := int(rt.Int64)
			ev.ResponseTimeMs = &v
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return events, nil
}

// DeleteItem removes an item and its review history.
func (s *Store) DeleteItem(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM review_history WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete history for item %d: %w", id, err)
	}

	res, err := tx.Exec(`DELETE FROM memory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of item %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// Categories lists every category in use, alphabetically.
func (s *Store) Categories() ([]string, error) {
	rows, err := s.conn.Query(`SELECT DISTINCT category FROM memory_items ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return categories, nil
}

// Stats summarizes the collection: totals, due count, mastery rate as a
// percentage rounded to one decimal (ties to even), and per-category
// breakdowns.
func (s *Store) Stats() (domain.Stats, error) {
	stats := domain.Stats{Categories: map[string]domain.CategoryStats{}}

	rows, err := s.conn.Query(`
		SELECT category, COUNT(*), COALESCE(SUM(mastered), 0)
		FROM memory_items
		GROUP BY category
	`)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name            string
			total, mastered int
		)
		if err := rows.Scan(&name, &total, &mastered); err != nil {
			return domain.Stats{}, fmt.Errorf("failed to scan category stats: %w", err)
		}
		stats.Categories[name] = domain.CategoryStats{Total: total, Mastered: mastered}
		stats.Total += total
		stats.Mastered += mastered
	}
	if err := rows.Err(); err != nil {
		return domain.Stats{}, fmt.Errorf("failed to read category stats: %w", err)
	}

	if err := s.conn.QueryRow(`
		SELECT COUNT(*) FROM memory_items WHERE mastered = 0 AND next_review <= ?
	`, s.now()).Scan(&stats.Due); err != nil {
		return domain.Stats{}, fmt.Errorf("failed to count due items: %w", err)
	}

	if stats.Total > 0 {
		stats.MasteryRate = math.RoundToEven(float64(stats.Mastered)/float64(stats.Total)*1000) / 10
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(sc rowScanner) (domain.MemoryItem, error) {
	var (
		item         domain.MemoryItem
		lastReviewed sql.NullTime
		fingerprint  sql.NullString
		sourceID     sql.NullInt64
	)
	err := sc.Scan(
		&item.ID,
		&item.Question,
		&item.Answer,
		&item.Category,
		&item.ReviewCount,
		&item.Difficulty,
		&item.Easiness,
		&item.Interval,
		&item.Mastered,
		&item.CreatedAt,
		&lastReviewed,
		&item.NextReview,
		&fingerprint,
		&sourceID,
	)
	if err != nil {
		return domain.MemoryItem{}, err
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		item.LastReviewed = &t
	}
	item.Fingerprint = fingerprint.String
	if sourceID.Valid {
		id := sourceID.Int64
		item.SourceID = &id
	}
	return item, nil
}

func collectItems(rows *sql.Rows) ([]domain.MemoryItem, error) {
	var items []domain.MemoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read item rows: %w", err)
	}
	return items, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullIntPtr(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
