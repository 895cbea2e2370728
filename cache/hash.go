package cache

import (
	"fmt"
	"strings"

	"github.com/minio/highwayhash"
)

// hashKey is the fixed 32-byte HighwayHash key. Changing it invalidates
// every stored cache entry.
var hashKey = []byte("LegalKlarityAnalysisCacheKey0001")

// ContentHash returns the hex HighwayHash-64 digest of data.
func ContentHash(data []byte) (string, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	if _, err := h.Write(data); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Key builds the cache key for an analysis of the given content hash in the
// given role and response language. Role and language are length-prefixed and
// hashed so no two parameter pairs share a key.
func Key(contentHash, role, languageCode string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	languageCode = strings.ToLower(strings.TrimSpace(languageCode))

	params := fmt.Sprintf("%d:%s%d:%s", len(role), role, len(languageCode), languageCode)
	return fmt.Sprintf("%s:%016x", contentHash, highwayhash.Sum64([]byte(params), hashKey))
}
