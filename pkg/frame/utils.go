package frame

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrNotAList is returned when flattening meets an element that is not a slice.
var ErrNotAList = errors.New("element is not a list")

// FlattenListOfLists concatenates the slice elements of items in order.
// Non-slice elements are dropped when removeNonLists is true and rejected
// with ErrNotAList otherwise. Strings are not lists.
func FlattenListOfLists(items []any, removeNonLists bool) ([]any, error) {
	var out []any
	for i, item := range items {
		v := reflect.ValueOf(item)
		if item == nil || v.Kind() != reflect.Slice {
			if removeNonLists {
				continue
			}
			return nil, fmt.Errorf("flattening element %d (%T): %w", i, item, ErrNotAList)
		}
		for j := range v.Len() {
			out = append(out, v.Index(j).Interface())
		}
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// Flatten concatenates typed lists in order.
func Flatten[T any](lists [][]T) []T {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]T, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// DictFromList maps every key to value. Duplicate keys collapse.
func DictFromList[K comparable, V any](keys []K, value V) map[K]V {
	out := make(map[K]V, len(keys))
	for _, k := range keys {
		out[k] = value
	}
	return out
}

// SnakeCase lowercases name and replaces spaces with underscores.
func SnakeCase(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// SnakeCaseCols returns a copy of f with snake_case column names. Names that
// collide after conversion are kept as duplicates.
func SnakeCaseCols(f *Frame) *Frame {
	return f.Rename(SnakeCase)
}
