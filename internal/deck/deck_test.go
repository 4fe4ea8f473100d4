package deck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/gitsource"
	"github.com/conorfennell/recall/internal/logger"
	"github.com/conorfennell/recall/internal/scheduler"
	"github.com/conorfennell/recall/internal/storage"
)

const goDeck = `Q: What starts a goroutine?
A: The go statement.
C: Concurrency

Q: What does reading a nil map return?
A: The zero value for the element type.
`

func newTestSyncer(t *testing.T) (*Syncer, *storage.Store) {
	t.Helper()

	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mirror := gitsource.NewMirror(t.TempDir(), logger.Nop())
	return NewSyncer(store, mirror, logger.Nop()), store
}

func writeDeck(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func findByQuestion(t *testing.T, store *storage.Store, question string) domain.MemoryItem {
	t.Helper()
	items, err := store.AllItems("")
	require.NoError(t, err)
	for _, item := range items {
		if item.Question == question {
			return item
		}
	}
	t.Fatalf("no item with question %q", question)
	return domain.MemoryItem{}
}

func TestSyncSourceImports(t *testing.T) {
	syncer, store := newTestSyncer(t)
	dir := t.TempDir()
	writeDeck(t, dir, "go-basics.md", goDeck)

	src, err := store.AddSource(dir)
	require.NoError(t, err)

	report, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, Report{Sources: 1, Parsed: 2, Added: 2}, report)

	tagged := findByQuestion(t, store, "What starts a goroutine?")
	assert.Equal(t, "Concurrency", tagged.Category)

	// Entries without a C: line file under the deck file's name.
	untagged := findByQuestion(t, store, "What does reading a nil map return?")
	assert.Equal(t, "go-basics", untagged.Category)

	for _, item := range []domain.MemoryItem{tagged, untagged} {
		assert.NotEmpty(t, item.Fingerprint)
		require.NotNil(t, item.SourceID)
		assert.Equal(t, src.ID, *item.SourceID)
	}

	synced, err := store.SourceByPath(dir)
	require.NoError(t, err)
	assert.NotNil(t, synced.LastSynced)
}

func TestSyncSourceIsIdempotent(t *testing.T) {
	syncer, store := newTestSyncer(t)
	dir := t.TempDir()
	writeDeck(t, dir, "go-basics.md", goDeck)

	src, err := store.AddSource(dir)
	require.NoError(t, err)

	_, err = syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)

	report, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, Report{Sources: 1, Parsed: 2}, report)

	items, err := store.AllItems("")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSyncSourcePreservesReviewState(t *testing.T) {
	syncer, store := newTestSyncer(t)
	dir := t.TempDir()
	writeDeck(t, dir, "go-basics.md", goDeck)

	src, err := store.AddSource(dir)
	require.NoError(t, err)
	_, err = syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)

	item := findByQuestion(t, store, "What starts a goroutine?")
	_, err = store.RecordReview(item.ID, scheduler.Confident, nil)
	require.NoError(t, err)
	_, err = store.RecordReview(item.ID, scheduler.Perfect, nil)
	require.NoError(t, err)

	_, err = syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)

	after := findByQuestion(t, store, "What starts a goroutine?")
	assert.Equal(t, item.ID, after.ID, "unchanged entries keep their row")
	assert.Equal(t, 2, after.ReviewCount)
}

func TestSyncSourceRemovesOrphans(t *testing.T) {
	syncer, store := newTestSyncer(t)
	dir := t.TempDir()
	writeDeck(t, dir, "go-basics.md", goDeck)

	src, err := store.AddSource(dir)
	require.NoError(t, err)
	_, err = syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)

	// Hand-added items have no fingerprint and must survive every sync.
	_, err = store.CreateItem(domain.MemoryItem{Question: "mine", Answer: "kept"})
	require.NoError(t, err)

	// Drop the second entry, keep the first verbatim, add a new one.
	writeDeck(t, dir, "go-basics.md", `Q: What starts a goroutine?
A: The go statement.
C: Concurrency

Q: What does cap return for a slice?
A: The capacity of its backing array segment.
`)

	report, err := syncer.SyncSource(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, Report{Sources: 1, Parsed: 2, Added: 1, Removed: 1}, report)

	items, err := store.AllItems("")
	require.NoError(t, err)
	assert.Len(t, items, 3)
	findByQuestion(t, store, "mine")
	findByQuestion(t, store, "What does cap return for a slice?")
	findByQuestion(t, store, "What starts a goroutine?")
}

func TestSyncAll(t *testing.T) {
	syncer, store := newTestSyncer(t)

	dirA := t.TempDir()
	writeDeck(t, dirA, "go.md", "Q: q1\nA: a1\n")
	dirB := t.TempDir()
	writeDeck(t, dirB, "math.md", "Q: q2\nA: a2\n\nQ: q3\nA: a3\n")

	_, err := store.AddSource(dirA)
	require.NoError(t, err)
	_, err = store.AddSource(dirB)
	require.NoError(t, err)
	// A broken source is skipped, not fatal.
	_, err = store.AddSource(filepath.Join(dirA, "does-not-exist"))
	require.NoError(t, err)

	report, err := syncer.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Sources: 2, Parsed: 3, Added: 3}, report)

	items, err := store.AllItems("")
	require.NoError(t, err)
	assert.Len(t, items, 3)
}
