// Package fileid derives stable document IDs for reports ingested from the
// filesystem, so re-processing a changed file updates the same document
// instead of creating a new one.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "file:"

// FileDocID hashes the cleaned path into a document ID. Equivalent spellings
// of the same path (trailing slash, "./" segments) map to one ID, which is
// what delete-by-path after a watcher remove event relies on.
func FileDocID(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return prefix + hex.EncodeToString(sum[:])
}
