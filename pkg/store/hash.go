package store

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// NormalizeContent case-folds content and collapses whitespace runs to
// a single space so that trivially reformatted duplicates normalize to
// the same string. This is the unit of equality for deduplication and
// for the session tier's idempotent insert.
func NormalizeContent(content string) string {
	return strings.Join(strings.Fields(strings.ToLower(content)), " ")
}

// ContentHash returns the FNV-1a hash of the normalized content as a
// fixed-width hex string, suitable for the content_hash columns.
func ContentHash(content string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(NormalizeContent(content)))
	return fmt.Sprintf("%016x", h.Sum64())
}
