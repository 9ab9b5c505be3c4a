// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/geostack/core"
)

// MarshalGridEntry serializes a GridEntry to bytes.
func MarshalGridEntry(e *core.GridEntry) []byte {
	buf := make([]byte, SizeGridEntry(e))
	n := varint.Uint32.Marshal(e.ID, buf)
	n += varint.Uint32.Marshal(e.X, buf[n:])
	n += varint.Uint32.Marshal(e.Y, buf[n:])
	n += raw.Float64.Marshal(e.Relev, buf[n:])
	raw.Uint8.Marshal(e.Score, buf[n:])
	return buf
}

// SizeGridEntry returns the serialized size of a GridEntry.
func SizeGridEntry(e *core.GridEntry) int {
	return varint.Uint32.Size(e.ID) +
		varint.Uint32.Size(e.X) +
		varint.Uint32.Size(e.Y) +
		raw.Float64.Size(e.Relev) +
		raw.Uint8.Size(e.Score)
}

// UnmarshalGridEntry deserializes a GridEntry from bytes, returning the
// number of bytes consumed.
func UnmarshalGridEntry(data []byte) (core.GridEntry, int, error) {
	var e core.GridEntry
	id, n, err := varint.Uint32.Unmarshal(data)
	if err != nil {
		return e, n, err
	}
	x, n1, err := varint.Uint32.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return e, n, err
	}
	y, n1, err := varint.Uint32.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return e, n, err
	}
	relev, n1, err := raw.Float64.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return e, n, err
	}
	score, n1, err := raw.Uint8.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return e, n, err
	}
	e = core.GridEntry{ID: id, X: x, Y: y, Relev: relev, Score: score}
	return e, n, nil
}

// MarshalGridEntries serializes a slice of grid entries with a count prefix.
func MarshalGridEntries(entries []core.GridEntry) []byte {
	size := varint.Int.Size(len(entries))
	for i := range entries {
		size += SizeGridEntry(&entries[i])
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(entries), buf)
	for i := range entries {
		n += copy(buf[n:], MarshalGridEntry(&entries[i]))
	}
	return buf
}

// UnmarshalGridEntries deserializes a count-prefixed slice of grid entries.
func UnmarshalGridEntries(data []byte) ([]core.GridEntry, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, ErrSerializationFailed
	}
	entries := make([]core.GridEntry, 0, count)
	for i := 0; i < count; i++ {
		e, n1, err := UnmarshalGridEntry(data[n:])
		n += n1
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MarshalFeature serializes a Feature to bytes.
func MarshalFeature(f *core.Feature) []byte {
	size := varint.Uint32.Size(f.ID) +
		ord.String.Size(f.Name) +
		raw.Float64.Size(f.Lon) +
		raw.Float64.Size(f.Lat) +
		raw.Float64.Size(f.Score) +
		varint.Uint16.Size(f.Idx) +
		raw.Uint8.Size(f.Zoom)
	buf := make([]byte, size)
	n := varint.Uint32.Marshal(f.ID, buf)
	n += ord.String.Marshal(f.Name, buf[n:])
	n += raw.Float64.Marshal(f.Lon, buf[n:])
	n += raw.Float64.Marshal(f.Lat, buf[n:])
	n += raw.Float64.Marshal(f.Score, buf[n:])
	n += varint.Uint16.Marshal(f.Idx, buf[n:])
	raw.Uint8.Marshal(f.Zoom, buf[n:])
	return buf
}

// UnmarshalFeature deserializes a Feature from bytes.
func UnmarshalFeature(data []byte) (*core.Feature, error) {
	id, n, err := varint.Uint32.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	name, n1, err := ord.String.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	lon, n1, err := raw.Float64.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	lat, n1, err := raw.Float64.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	score, n1, err := raw.Float64.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	idx, n1, err := varint.Uint16.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return nil, err
	}
	zoom, _, err := raw.Uint8.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	return &core.Feature{ID: id, Name: name, Lon: lon, Lat: lat, Score: score, Idx: idx, Zoom: zoom}, nil
}

// MarshalPostings serializes a word's phrase postings with a count prefix.
func MarshalPostings(phrases []core.ID) []byte {
	size := varint.Int.Size(len(phrases))
	for _, p := range phrases {
		size += varint.Uint64.Size(uint64(p))
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(phrases), buf)
	for _, p := range phrases {
		n += varint.Uint64.Marshal(uint64(p), buf[n:])
	}
	return buf
}

// UnmarshalPostings deserializes a count-prefixed posting list.
func UnmarshalPostings(data []byte) ([]core.ID, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, ErrSerializationFailed
	}
	phrases := make([]core.ID, 0, count)
	for i := 0; i < count; i++ {
		p, n1, err := varint.Uint64.Unmarshal(data[n:])
		n += n1
		if err != nil {
			return nil, err
		}
		phrases = append(phrases, core.ID(p))
	}
	return phrases, nil
}
