package store

import "errors"

// ErrNotInitialized indicates the backing store file does not exist
// yet. First-run entry points (maintenance, correction, health) check
// for it with errors.Is and return structured zero-value results
// instead of failing.
var ErrNotInitialized = errors.New("memory store not initialized")

// ErrEmptyContent indicates a write was attempted with empty content.
// Content is the unit of similarity matching; an empty payload can
// never be matched, deduplicated, or corrected.
var ErrEmptyContent = errors.New("empty content")
