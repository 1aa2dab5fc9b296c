// Package store persists flat records in named collections. It is the
// adapter through which vocabulary accumulators load and checkpoint their
// state. Every backend follows the same contract:
//
//   - Get returns the records of a collection matching all filter fields,
//     oldest first, each carrying the backend-assigned IDField.
//   - Insert creates one record per argument.
//   - Update merges fields into the collection's canonical (oldest) record.
//     Nested maps merge key by key and every other value overwrites, so a
//     partial payload never drops fields it does not mention.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// IDField is the reserved key a backend injects into every record it
// returns. It is never part of the caller's data.
const IDField = "_id"

var errClosed = errors.New("store closed")

// Record is one stored document: a flat map of top-level fields whose
// values may themselves be maps.
type Record map[string]any

// Filter selects records whose top-level fields equal the given values.
// An empty filter selects every record.
type Filter map[string]any

// Store is the persistence contract shared by all backends.
type Store interface {
	Get(ctx context.Context, collection string, filter Filter) ([]Record, error)
	Insert(ctx context.Context, collection string, records ...Record) error
	Update(ctx context.Context, collection string, fields Record) error
	Ping(ctx context.Context) error
	Close() error
}

// Merge applies src onto dst with the Update semantics and returns dst.
// Values taken from src are deep-copied.
func Merge(dst, src Record) Record {
	if dst == nil {
		dst = Record{}
	}
	mergeMaps(dst, src)
	return dst
}

func mergeMaps(dst, src map[string]any) {
	for key, value := range src {
		if key == IDField {
			continue
		}
		srcMap, srcIsMap := asMap(value)
		dstMap, dstIsMap := asMap(dst[key])
		if srcIsMap && dstIsMap {
			mergeMaps(dstMap, srcMap)
			dst[key] = dstMap
			continue
		}
		dst[key] = cloneValue(value)
	}
}

// Clone returns a deep copy of r.
func Clone(r Record) Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return map[string]any(Clone(t))
	case map[string]any:
		return map[string]any(Clone(Record(t)))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Record:
		return map[string]any(t), true
	case map[string]any:
		return t, true
	default:
		return nil, false
	}
}

// Matches reports whether r satisfies every field of f. Numbers compare
// by value regardless of their Go type.
func Matches(r Record, f Filter) bool {
	for key, want := range f {
		got, ok := r[key]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if fa, ok := ToFloat(a); ok {
		if fb, ok := ToFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

// ToFloat converts the numeric representations backends may return.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ToInt converts an integral value of any backend representation.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return int(i), true
		}
	}
	f, ok := ToFloat(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// encodeRecord serializes r without its IDField.
func encodeRecord(r Record) ([]byte, error) {
	data := make(Record, len(r))
	for k, v := range r {
		if k == IDField {
			continue
		}
		data[k] = v
	}
	return json.Marshal(data)
}

// decodeRecord parses data keeping numbers as json.Number so integer ids
// and float weights survive without loss.
func decodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
