package domain

import (
	"strings"
	"time"
)

// SourceKind distinguishes local deck directories from git repositories.
type SourceKind string

const (
	SourceLocal SourceKind = "local"
	SourceGit   SourceKind = "git"
)

// Source is a registered deck location: a directory (or git repository) of
// markdown files whose cards are synced into the item store.
type Source struct {
	ID         int64      `json:"id"`
	Path       string     `json:"path"`
	Kind       SourceKind `json:"kind"`
	LastSynced *time.Time `json:"last_synced,omitempty"`
}

// DetectSourceKind classifies a source path as git or local. Anything that
// looks like a clone URL is git; everything else is a local directory.
func DetectSourceKind(path string) SourceKind {
	if strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://") {
		return SourceGit
	}
	return SourceLocal
}
