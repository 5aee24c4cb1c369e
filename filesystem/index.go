package filesystem

import (
	"iter"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortedIndex keeps values ordered by a key derived from each value.
// Keys that compare equal occupy a single slot; setting one overwrites it.
//
// NOTE: SortedIndex is not thread-safe; the owning [FileSystem] serializes access
type SortedIndex[K any, V any] struct {
	keyOf   func(V) K
	compare func(a, b K) int
	entries []V
}

func NewSortedIndex[K any, V any](keyOf func(V) K, compare func(a, b K) int) *SortedIndex[K, V] {
	return &SortedIndex[K, V]{keyOf: keyOf, compare: compare}
}

func (s *SortedIndex[K, V]) search(key K) (int, bool) {
	return slices.BinarySearchFunc(s.entries, key, func(v V, k K) int {
		return s.compare(s.keyOf(v), k)
	})
}

// Set inserts v in order, replacing any value with an equal key
func (s *SortedIndex[K, V]) Set(v V) {
	i, found := s.search(s.keyOf(v))
	if found {
		s.entries[i] = v
		return
	}
	s.entries = slices.Insert(s.entries, i, v)
}

func (s *SortedIndex[K, V]) Get(key K) (v V, ok bool) {
	if i, found := s.search(key); found {
		return s.entries[i], true
	}
	return v, false
}

func (s *SortedIndex[K, V]) Has(key K) bool {
	_, found := s.search(key)
	return found
}

// RemoveByKey removes the value stored under key and reports whether one existed
func (s *SortedIndex[K, V]) RemoveByKey(key K) bool {
	i, found := s.search(key)
	if !found {
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true
}

// RemoveByValue removes the slot holding v's key
func (s *SortedIndex[K, V]) RemoveByValue(v V) bool {
	return s.RemoveByKey(s.keyOf(v))
}

func (s *SortedIndex[K, V]) Len() int {
	return len(s.entries)
}

// All yields values in comparator order. The index must not be modified
// while iterating; use [SortedIndex.Values] for a snapshot.
func (s *SortedIndex[K, V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range s.entries {
			if !yield(v) {
				return
			}
		}
	}
}

// Values returns a snapshot of the values in comparator order
func (s *SortedIndex[K, V]) Values() []V {
	return slices.Clone(s.entries)
}

// NewPathComparer returns the ordering used for child directories and
// directory listings. Case-sensitive stores get a locale-aware collation
// with a byte-wise tie break so distinct paths never compare equal;
// case-insensitive stores compare case-folded paths.
func NewPathComparer(caseSensitive bool) func(a, b string) int {
	if !caseSensitive {
		folder := cases.Fold()
		return func(a, b string) int {
			return strings.Compare(folder.String(a), folder.String(b))
		}
	}
	collator := collate.New(language.Und)
	return func(a, b string) int {
		if c := collator.CompareString(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	}
}
