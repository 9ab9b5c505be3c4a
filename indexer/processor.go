package indexer

import (
	"strings"
	"unicode"

	"github.com/poiesic/geostack/core"
	"github.com/poiesic/geostack/tile"
)

// DefaultScorefactor is the encode ceiling used for indexes without a
// configured scorefactor. Queries must decode against the same value.
const DefaultScorefactor = 1e6

// Tokenize lowercases a feature name and splits it on anything that is
// not a letter or digit.
func Tokenize(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// PhraseID derives the dictionary phrase ID of a token sequence.
func PhraseID(tokens []string) core.ID {
	return core.IDFromContent(strings.Join(tokens, " "))
}

// gridWrite is one processed feature, ready for the grid cache.
type gridWrite struct {
	idx     uint16
	phrase  core.ID
	entry   core.GridEntry
	feature *core.Feature
	tokens  []string
}

// processor turns features into grid writes: tokenize the name, derive the
// phrase ID, project the point and log-scale encode the score.
type processor struct {
	scorefactors map[uint16]float64
}

func (p *processor) scorefactor(idx uint16) float64 {
	if sf, ok := p.scorefactors[idx]; ok && sf > 0 {
		return sf
	}
	return DefaultScorefactor
}

func (p *processor) process(f *core.Feature) (*gridWrite, error) {
	if err := core.ValidateFeature(f); err != nil {
		return nil, err
	}

	tokens := Tokenize(f.Name)
	zxy, err := tile.ProjectToTileXY(f.Lon, f.Lat, f.Zoom)
	if err != nil {
		return nil, err
	}

	return &gridWrite{
		idx:    f.Idx,
		phrase: PhraseID(tokens),
		entry: core.GridEntry{
			ID:    f.ID,
			X:     zxy.X,
			Y:     zxy.Y,
			Relev: 1,
			Score: core.EncodeScore(f.Score, p.scorefactor(f.Idx)),
		},
		feature: f,
		tokens:  tokens,
	}, nil
}
