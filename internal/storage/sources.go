package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/recall/internal/domain"
)

// AddSource registers a deck source path. Re-adding a known path returns
// the stored row unchanged.
func (s *Store) AddSource(path string) (domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.SourceByPath(path)
	if err == nil {
		return src, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Source{}, err
	}

	kind := domain.DetectSourceKind(path)

	res, err := s.conn.Exec(`INSERT INTO sources (path, kind) VALUES (?, ?)`, path, string(kind))
	if err != nil {
		return domain.Source{}, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Source{}, fmt.Errorf("failed to get inserted source id: %w", err)
	}
	return domain.Source{ID: id, Path: path, Kind: kind}, nil
}

// SourceByPath looks a source up by its path.
func (s *Store) SourceByPath(path string) (domain.Source, error) {
	return scanSource(s.conn.QueryRow(`
		SELECT id, path, kind, last_synced FROM sources WHERE path = ?
	`, path))
}

// Sources returns every registered source in registration order.
func (s *Store) Sources() ([]domain.Source, error) {
	rows, err := s.conn.Query(`SELECT id, path, kind, last_synced FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return sources, nil
}

// TouchSource stamps a source as synced now.
func (s *Store) TouchSource(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.conn.Exec(`UPDATE sources SET last_synced = ? WHERE id = ?`, s.now(), id); err != nil {
		return fmt.Errorf("failed to stamp source %d: %w", id, err)
	}
	return nil
}

// FingerprintsBySource maps each of a source's item fingerprints to its
// row id, used to reconcile a fresh parse against what is stored.
func (s *Store) FingerprintsBySource(sourceID int64) (map[string]int64, error) {
	rows, err := s.conn.Query(`
		SELECT id, fingerprint FROM memory_items
		WHERE source_id = ? AND fingerprint IS NOT NULL
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	known := map[string]int64{}
	for rows.Next() {
		var (
			id int64
			fp string
		)
		if err := rows.Scan(&id, &fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint row: %w", err)
		}
		known[fp] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fingerprint rows: %w", err)
	}
	return known, nil
}

func scanSource(sc rowScanner) (domain.Source, error) {
	var (
		src    domain.Source
		kind   string
		synced sql.NullTime
	)
	if err := sc.Scan(&src.ID, &src.Path, &kind, &synced); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Source{}, ErrNotFound
		}
		return domain.Source{}, fmt.Errorf("failed to scan source: %w", err)
	}
	src.Kind = domain.SourceKind(kind)
	if synced.Valid {
		t := synced.Time
		src.LastSynced = &t
	}
	return src, nil
}
