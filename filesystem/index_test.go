package filesystem

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	key   string
	value int
}

func newItemIndex() *SortedIndex[string, item] {
	return NewSortedIndex(func(i item) string { return i.key }, strings.Compare)
}

func TestSortedIndex_SetKeepsOrder(t *testing.T) {
	t.Parallel()

	idx := newItemIndex()
	for _, k := range []string{"d", "b", "a", "c"} {
		idx.Set(item{key: k})
	}

	var keys []string
	for v := range idx.All() {
		keys = append(keys, v.key)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys)
	assert.Equal(t, 4, idx.Len())
}

func TestSortedIndex_SetReplacesEqualKey(t *testing.T) {
	t.Parallel()

	idx := newItemIndex()
	idx.Set(item{key: "a", value: 1})
	idx.Set(item{key: "a", value: 2})

	require.Equal(t, 1, idx.Len())
	v, ok := idx.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v.value)
}

func TestSortedIndex_Remove(t *testing.T) {
	t.Parallel()

	idx := newItemIndex()
	idx.Set(item{key: "a"})
	idx.Set(item{key: "b"})

	assert.True(t, idx.RemoveByKey("a"))
	assert.False(t, idx.RemoveByKey("a"))
	assert.False(t, idx.Has("a"))

	assert.True(t, idx.RemoveByValue(item{key: "b", value: 99}), "removal goes by key")
	assert.Zero(t, idx.Len())

	_, ok := idx.Get("b")
	assert.False(t, ok)
}

func TestSortedIndex_ValuesIsSnapshot(t *testing.T) {
	t.Parallel()

	idx := newItemIndex()
	idx.Set(item{key: "a"})
	idx.Set(item{key: "b"})

	for _, v := range idx.Values() {
		idx.RemoveByValue(v)
	}
	assert.Zero(t, idx.Len())
}

func TestNewPathComparer(t *testing.T) {
	t.Parallel()

	t.Run("case sensitive", func(t *testing.T) {
		t.Parallel()
		compare := NewPathComparer(true)

		assert.NotZero(t, compare("/a", "/A"), "distinct paths never compare equal")
		assert.Zero(t, compare("/a", "/a"))

		paths := []string{"/c", "/B", "/a", "/b"}
		slices.SortFunc(paths, compare)
		assert.Equal(t, []string{"/a", "/b", "/B", "/c"}, paths)
	})

	t.Run("case insensitive", func(t *testing.T) {
		t.Parallel()
		compare := NewPathComparer(false)

		assert.Zero(t, compare("/Dir/File", "/dir/file"))
		assert.Negative(t, compare("/a", "/B"))
		assert.Positive(t, compare("/c", "/B"))
	})
}
