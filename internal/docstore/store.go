// Package docstore is a schema-less document store addressed by
// collection name and document id.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrNotFound          = errors.New("docstore: document not found")
	ErrInvalidCollection = errors.New("docstore: invalid collection name")
	ErrInvalidID         = errors.New("docstore: empty document id")
	ErrNotArray          = errors.New("docstore: field is not an array")
)

var collectionRegexp = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Document is one record of a collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Query controls List ordering. A zero Query lists in insertion order.
type Query struct {
	OrderBy    string
	Descending bool
}

// Store is implemented by every backend.
type Store interface {
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Insert stores data under a new random id and returns it.
	Insert(ctx context.Context, collection string, data map[string]any) (string, error)
	// Update merges fields into the top level of an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Append adds values to the array at field in one atomic step and
	// returns the resulting array. A missing field starts empty.
	Append(ctx context.Context, collection, id, field string, values ...any) ([]any, error)
	// Count returns the number of documents in a collection.
	Count(ctx context.Context, collection string) (int, error)
	Close() error
}

// ValidateCollection checks a collection name.
func ValidateCollection(name string) error {
	if !collectionRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}

func validateKey(collection, id string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	if id == "" {
		return ErrInvalidID
	}
	return nil
}

// encode marshals data to JSON; nil data becomes an empty object.
func encode(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

func decode(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return data, nil
}

// merge applies fields over data in place.
func merge(data, fields map[string]any) {
	maps.Copy(data, fields)
}

// appendField appends values to data[field] and returns the new array
// after a JSON round trip, so callers see the same types a later read would.
func appendField(data map[string]any, field string, values []any) ([]any, error) {
	var arr []any
	switch cur := data[field].(type) {
	case nil:
	case []any:
		arr = cur
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotArray, field)
	}
	arr = append(slices.Clone(arr), values...)

	b, err := json.Marshal(arr)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", field, err)
	}
	out := []any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", field, err)
	}
	data[field] = out
	return out, nil
}

// Sort orders docs by q. It is stable, so ties keep enumeration order.
func Sort(docs []Document, q Query) {
	if q.OrderBy == "" {
		return
	}
	slices.SortStableFunc(docs, func(a, b Document) int {
		c := compareValues(a.Data[q.OrderBy], b.Data[q.OrderBy])
		if q.Descending {
			return -c
		}
		return c
	})
}

// compareValues compares numerically when both values are numbers and as
// strings otherwise. Missing (nil) values sort first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
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
	}
	return 0, false
}
