// Package deck imports flashcard decks from registered sources and keeps
// stored items in step with their files. Entries are matched by content
// fingerprint: new fingerprints become items, fingerprints gone from the
// files take their items (and review history) with them, and everything
// in between keeps its scheduling state untouched.
package deck

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/gitsource"
	"github.com/conorfennell/recall/internal/logger"
	"github.com/conorfennell/recall/internal/parser"
	"github.com/conorfennell/recall/internal/storage"
)

// Syncer reconciles deck sources against the store.
type Syncer struct {
	store  *storage.Store
	mirror *gitsource.Mirror
	log    *logger.Logger
}

// Report counts what one sync pass did.
type Report struct {
	Sources int `json:"sources"`
	Parsed  int `json:"parsed"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

func NewSyncer(store *storage.Store, mirror *gitsource.Mirror, log *logger.Logger) *Syncer {
	return &Syncer{store: store, mirror: mirror, log: log}
}

// SyncAll reconciles every registered source. A failing source is logged
// and skipped so the rest still sync.
func (s *Syncer) SyncAll(ctx context.Context) (Report, error) {
	sources, err := s.store.Sources()
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, src := range sources {
		r, err := s.SyncSource(ctx, src)
		if err != nil {
			s.log.Error("failed to sync source", "path", src.Path, "error", err)
			continue
		}
		report.Sources++
		report.Parsed += r.Parsed
		report.Added += r.Added
		report.Removed += r.Removed
	}
	return report, nil
}

// SyncSource reconciles a single source. Git sources are refreshed into
// the local mirror first.
func (s *Syncer) SyncSource(ctx context.Context, src domain.Source) (Report, error) {
	dir := src.Path
	if src.Kind == domain.SourceGit {
		var err error
		dir, err = s.mirror.Refresh(ctx, src.Path)
		if err != nil {
			return Report{}, err
		}
	}

	entries, err := s.collect(dir)
	if err != nil {
		return Report{}, err
	}

	known, err := s.store.FingerprintsBySource(src.ID)
	if err != nil {
		return Report{}, err
	}

	seen := make(map[string]bool, len(entries))
	var added, removed int
	for _, entry := range entries {
		if seen[entry.Fingerprint] {
			continue
		}
		seen[entry.Fingerprint] = true
		if _, ok := known[entry.Fingerprint]; ok {
			continue
		}
		entry.SourceID = &src.ID
		if _, err := s.store.CreateItem(entry); err != nil {
			s.log.Warn("failed to import entry", "fingerprint", entry.Fingerprint, "error", err)
			continue
		}
		added++
	}

	for fingerprint, id := range known {
		if seen[fingerprint] {
			continue
		}
		if err := s.store.DeleteItem(id); err != nil {
			s.log.Warn("failed to remove orphaned item", "id", id, "error", err)
			continue
		}
		removed++
	}

	if err := s.store.TouchSource(src.ID); err != nil {
		s.log.Warn("failed to stamp source", "path", src.Path, "error", err)
	}

	s.log.Info("deck synced",
		"path", src.Path,
		"parsed", len(entries),
		"added", added,
		"removed", removed,
	)
	return Report{Sources: 1, Parsed: len(entries), Added: added, Removed: removed}, nil
}

// collect walks dir for .md deck files and returns their fingerprinted
// entries. Entries without a C: line file under the deck file's name.
func (s *Syncer) collect(dir string) ([]domain.MemoryItem, error) {
	var entries []domain.MemoryItem
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		items, err := parser.ParseFile(path)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		fallback := deckName(path)
		for _, item := range items {
			if item.Category == "" {
				item.Category = fallback
			}
			item.Fingerprint = parser.Fingerprint(item)
			entries = append(entries, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func deckName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
