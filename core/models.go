package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// MaxIndexes is the number of index ordinals a bmask can address. An idx at
// or above this width cannot participate in stacking.
const MaxIndexes = 64

// MaxTokens is the widest query a token mask can cover.
const MaxTokens = 32

// ID is a unique identifier for dictionary phrases.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// PrefixScan records how a phrasematch was matched against the dictionary.
type PrefixScan uint8

const (
	// PrefixDisabled means the phrase matched in full.
	PrefixDisabled PrefixScan = iota
	// PrefixEnabled means the phrase matched as a prefix of a longer phrase.
	PrefixEnabled
	// PrefixWordBoundary means the prefix match ended on a word boundary.
	PrefixWordBoundary
)

// Phrasematch is one candidate interpretation of part of the query against
// a single index. Mask and NMask are token-position bitmasks; BMask is an
// index-position bitmask of indexes this match may not stack with.
type Phrasematch struct {
	Idx            uint16
	PhraseID       ID // dictionary phrase backing this match in the grid cache
	Mask           uint32
	NMask          uint32
	BMask          uint64
	Weight         float64 // normalized to [0,1]
	EditMultiplier float64 // <= 1, penalty for fuzzy edits
	EditDistance   int
	Prefix         PrefixScan
	Scorefactor    float64
	ProxMatch      bool
	CatMatch       bool
	PartialNumber  bool
	Radius         float64
	Zoom           uint8
	Subquery       []string
	Address        string // house number token, empty when absent
}

// PhrasematchResult groups the candidate phrasematches of one
// index/interpretation pair.
type PhrasematchResult struct {
	Idx           uint16
	NMask         uint32
	BMask         uint64
	Phrasematches []*Phrasematch
}

// CacheCover is a single tile-level cover as produced by coalesce. Score and
// Scoredist are still raw (3-bit log scale); see DecodeScore / DecodeScoredist.
type CacheCover struct {
	X               uint32
	Y               uint32
	Idx             uint16
	ID              uint32
	TmpID           uint32
	Relev           float64
	Distance        float64
	Score           uint8
	Scoredist       float64
	MatchesLanguage bool
}

// CacheSpatialmatch is one intersected result across the layers of a stack,
// as produced by coalesce.
type CacheSpatialmatch struct {
	Relev  float64
	Covers []CacheCover
}

// Cover enriches a CacheCover with decoded scores and the text, zoom, prefix
// and mask of the phrasematch that produced its layer.
type Cover struct {
	X               uint32
	Y               uint32
	Idx             uint16
	ID              uint32
	TmpID           uint32
	Relev           float64
	Distance        float64
	Score           float64
	Scoredist       float64
	MatchesLanguage bool
	Text            string
	Zoom            uint8
	Prefix          PrefixScan
	Mask            uint32
}

// Spatialmatch is a final multi-layer spatial result.
// Scoredist is Covers[0].Scoredist, boosted 300x for partial numbers.
type Spatialmatch struct {
	Relev         float64
	Covers        []*Cover
	PartialNumber bool
	Address       string
	Scoredist     float64
}

// GridEntry is one tile cover for a (phrase, index) pair as persisted in the
// grid cache. Score is 3-bit log-scale encoded.
type GridEntry struct {
	ID    uint32
	X     uint32
	Y     uint32
	Relev float64
	Score uint8
}

// Feature is one indexable document: a named point with a score, belonging
// to one index at a fixed zoom.
type Feature struct {
	ID    uint32
	Name  string
	Lon   float64
	Lat   float64
	Score float64
	Idx   uint16
	Zoom  uint8
}
