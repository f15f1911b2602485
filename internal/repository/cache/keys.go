package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key namespaces. Mutable-entity keys are evicted on writes; content-hash
// keys are immutable and expire by TTL only; stats keys are bulk-evicted.
const (
	keyPrefix = "semsearch:cache:"

	nsDocument = keyPrefix + "doc:"
	nsProfile  = keyPrefix + "profile:"
	nsListing  = keyPrefix + "docs:"
	nsOCR      = keyPrefix + "ocr:"
	nsClassify = keyPrefix + "classify:"
	nsStats    = keyPrefix + "stats:"
	nsSearch   = keyPrefix + "search:"
)

// DocumentKey keys a document detail payload.
func DocumentKey(docID string) string {
	return nsDocument + docID
}

// UserProfileKey keys a user profile payload.
func UserProfileKey(userID string) string {
	return nsProfile + userID
}

// UserDocumentsKey keys one page of a user's document listing.
func UserDocumentsKey(userID string, page, size int, sortBy string) string {
	return fmt.Sprintf("%s%s:p%d:s%d:%s", nsListing, userID, page, size, sortBy)
}

// UserDocumentsPattern matches every listing page of a user, for bulk eviction
// when a write changes the page shape.
func UserDocumentsPattern(userID string) string {
	return nsListing + userID + ":*"
}

// OCRTextKey keys extracted text by file content hash.
func OCRTextKey(fileHash string) string {
	return nsOCR + fileHash
}

// ClassificationKey keys an AI classification result by content hash.
func ClassificationKey(contentHash string) string {
	return nsClassify + contentHash
}

// DashboardStatsKey keys a user's aggregate dashboard counts.
func DashboardStatsKey(userID string) string {
	return nsStats + userID
}

// StatsPattern matches every stats entry, for bulk eviction on any
// contributing write.
func StatsPattern() string {
	return nsStats + "*"
}

// SearchResultsKey keys a search response by its query signature.
func SearchResultsKey(ownerID, query string, limit int) string {
	sig := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", ownerID, query, limit)))
	return nsSearch + hex.EncodeToString(sig[:])
}

// SearchResultsPattern matches every cached search response.
func SearchResultsPattern() string {
	return nsSearch + "*"
}

// AllPattern matches every cache entry, for an explicit cache-wide clear.
func AllPattern() string {
	return keyPrefix + "*"
}
