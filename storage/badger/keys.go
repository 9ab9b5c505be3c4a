package badger

import (
	"encoding/binary"

	"github.com/poiesic/geostack/core"
)

// Key prefixes for different data types
const (
	gridEntryPrefix = "grid"
	featurePrefix   = "feat"
	wordPrefix      = "word"
)

// makeGridKey generates a composite key for a (index, phrase) grid cell.
// Format: "grid:" followed by idx (2 bytes) and phraseID (8 bytes).
func makeGridKey(idx uint16, phrase core.ID) []byte {
	prefix := gridEntryPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 10 // 2 bytes for idx + 8 bytes for phrase ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint16(buf[offset:], idx)
	offset += 2
	binary.BigEndian.PutUint64(buf[offset:], uint64(phrase))
	return buf
}

// makeFeatureKey generates a composite key for feature metadata.
// Format: "feat:" followed by idx (2 bytes) and featureID (4 bytes).
func makeFeatureKey(idx uint16, id uint32) []byte {
	prefix := featurePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 6 // 2 bytes for idx + 4 bytes for feature ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint16(buf[offset:], idx)
	offset += 2
	binary.BigEndian.PutUint32(buf[offset:], id)
	return buf
}

// makeWordKey generates a key for a dictionary word entry.
func makeWordKey(word string) []byte {
	return []byte(wordPrefix + ":" + word)
}
