package storage

const schema = `
-- 'memory_items' holds each flashcard together with its scheduling state.
CREATE TABLE IF NOT EXISTS memory_items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    question      TEXT NOT NULL,
    answer        TEXT NOT NULL,
    category      TEXT NOT NULL DEFAULT 'default',
    review_count  INTEGER NOT NULL DEFAULT 0,
    difficulty    INTEGER NOT NULL DEFAULT 1,
    easiness      REAL NOT NULL DEFAULT 2.5,
    interval_days REAL NOT NULL DEFAULT 1,
    mastered      INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL,
    last_reviewed DATETIME,
    next_review   DATETIME NOT NULL,
    fingerprint   TEXT,
    source_id     INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- Imported entries are addressed by content fingerprint during sync.
-- Hand-added items carry no fingerprint, hence the partial index.
CREATE UNIQUE INDEX IF NOT EXISTS idx_memory_items_fingerprint
    ON memory_items(fingerprint) WHERE fingerprint IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_memory_items_due
    ON memory_items(mastered, next_review);

-- 'review_history' records every grading of an item.
CREATE TABLE IF NOT EXISTS review_history (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id          INTEGER NOT NULL,
    quality          INTEGER NOT NULL,
    response_time_ms INTEGER,
    reviewed_at      DATETIME NOT NULL,

    FOREIGN KEY(item_id) REFERENCES memory_items(id)
);

-- 'sources' tracks where imported decks come from, either a local
-- directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    path        TEXT NOT NULL UNIQUE,
    kind        TEXT NOT NULL,
    last_synced DATETIME
);
`
