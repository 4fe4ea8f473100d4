package storage

import "errors"

var (
	// ErrNotFound is returned when no item or source has the given key.
	ErrNotFound = errors.New("storage: not found")

	// ErrEmptyContent is returned when an item is created without a
	// question or an answer.
	ErrEmptyContent = errors.New("storage: question and answer must not be empty")
)
