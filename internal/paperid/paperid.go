// Package paperid derives stable paper IDs for locally ingested files.
// ArXiv papers keep their arXiv ID; local files get a deterministic ID from
// their path so re-ingesting a changed file updates the same paper.
package paperid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const filePrefix = "file:"

// FromPath returns a stable paper ID for the given path. The path is cleaned
// first, so equivalent spellings of the same path yield the same ID.
func FromPath(path string) string {
	normalized := filepath.Clean(path)
	hash := sha256.Sum256([]byte(normalized))
	return filePrefix + hex.EncodeToString(hash[:16])
}

// IsFileID reports whether the ID was derived from a local file path.
func IsFileID(id string) bool {
	return strings.HasPrefix(id, filePrefix)
}
