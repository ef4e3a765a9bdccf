package analysis

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash is the lowercase hex SHA-256 digest of a document's exact
// bytes.  Identical byte sequences always produce identical hashes, which is
// what makes the analysis cache content-addressed and stable across
// processes and machines.
type ContentHash string

// HashContent fingerprints the exact byte content of a document.  No
// normalization is applied here; any cleanup of scraped text happens
// upstream in extraction, so that what is hashed is exactly what was
// analyzed.
func HashContent(content string) ContentHash {
	sum := sha256.Sum256([]byte(content))
	return ContentHash(hex.EncodeToString(sum[:]))
}

// CacheKey combines hash and content type into the canonical composite cache
// key used by the redis hot layer and singleflight groups.
func CacheKey(hash ContentHash, contentType ContentType) string {
	return string(hash) + ":" + string(contentType)
}
