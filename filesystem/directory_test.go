package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) (*FileSystem, func(p string) *Directory) {
	fs, _ := newTestFS(t)
	return fs, fs.getOrCreateDirectory
}

func dirPaths(dirs []*Directory) []string {
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = d.Path()
	}
	return out
}

func TestDirectory_GetOrCreateLinksAncestors(t *testing.T) {
	t.Parallel()
	_, dir := newTestTree(t)

	c := dir("/a/b/c")
	assert.Equal(t, []string{"/a/b", "/a", "/"}, dirPaths(c.Ancestors()))
	assert.Equal(t, "/a/b", c.Parent().Path())
	assert.True(t, dir("/").IsRoot())
	assert.Nil(t, dir("/").Parent())

	dir("/a/x")
	assert.Equal(t, []string{"/a/b", "/a/b/c", "/a/x"}, dirPaths(dir("/a").Descendants()))

	assert.True(t, c.IsDescendant(dir("/a")))
	assert.False(t, c.IsDescendant(c))
	assert.True(t, c.IsDescendantOrEqual(c))
	assert.False(t, dir("/a/x").IsDescendant(dir("/a/b")))
}

func TestDirectory_SetIsDeleted(t *testing.T) {
	t.Parallel()
	_, dir := newTestTree(t)

	a := dir("/a")
	b := dir("/a/b")
	c := dir("/a/b/c")

	a.setIsDeleted(true)
	assert.True(t, a.IsDeleted())
	assert.True(t, b.IsDeleted())
	assert.True(t, c.IsDeleted())
	assert.True(t, c.WasEverDeleted())

	// a node created beneath a deleted one starts deleted
	assert.True(t, dir("/a/b/new/deeper").IsDeleted())
	assert.True(t, dir("/a/b/new").IsDeleted())

	c.setIsDeleted(false)
	assert.False(t, c.IsDeleted())
	assert.False(t, b.IsDeleted())
	assert.False(t, a.IsDeleted())
	assert.True(t, c.WasEverDeleted(), "history is kept")
	assert.False(t, dir("/other").WasEverDeleted())
}

func TestDirectory_RemoveParentKeepsCaseVariant(t *testing.T) {
	t.Parallel()
	tree := newDirTree(NewPathComparer(false))
	root := newDirectory(tree, "/")
	tree.nodes["/"] = root

	old := newDirectory(tree, "/A")
	old.setParent(root)
	fresh := newDirectory(tree, "/a")
	fresh.setParent(root)

	old.removeParent()
	assert.Nil(t, old.Parent())
	got, ok := root.childDirs.Get("/a")
	require.True(t, ok)
	assert.Same(t, fresh, got)

	fresh.removeParent()
	assert.Equal(t, 0, root.childDirs.Len())
}

func TestDirectory_ChildEntriesSkipDeleted(t *testing.T) {
	t.Parallel()
	_, dir := newTestTree(t)

	dir("/p/b")
	dir("/p/a")
	dir("/p/gone").setIsDeleted(true)

	entries := dir("/p").childEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "/p/a", entries[0].Path)
	assert.Equal(t, "/p/b", entries[1].Path)
	assert.True(t, entries[0].IsDirectory)
}

func TestDirectory_ExternalOperations(t *testing.T) {
	t.Parallel()
	fs, dir := newTestTree(t)

	require.NoError(t, fs.QueueCopyDirectory("/x/a", "/x/b"))
	op := dir("/x").operations[0]

	tests := []struct {
		name string
		path string
		want []*Operation
	}{
		{"source", "/x/a", []*Operation{op}},
		{"inside source", "/x/a/deep", []*Operation{op}},
		{"destination deduplicated", "/x/b", []*Operation{op}},
		{"owner sees an internal operation", "/x", nil},
		{"ancestor of owner", "/", nil},
		{"unrelated sibling", "/x/c", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dir(tt.path).ExternalOperations(nil))
		})
	}

	assert.Empty(t, dir("/x/b").ExternalOperations(tolerate(OpCopy)))
}

func TestDirectory_ExternalOperationsOrderedByIndex(t *testing.T) {
	t.Parallel()
	fs, dir := newTestTree(t)

	require.NoError(t, fs.QueueCopyDirectory("/s1", "/t/one"))
	require.NoError(t, fs.QueueCopyDirectory("/s2", "/t/two"))
	require.NoError(t, fs.QueueDirectoryDelete("/t/three/sub"))

	ops := dir("/t").ExternalOperations(nil)
	require.Len(t, ops, 2)
	assert.Less(t, ops[0].Index, ops[1].Index)
	assert.Equal(t, "/s1", ops[0].OldDir)

	// a queued delete of a directory is external to everything inside it
	ops = dir("/t/three/sub/x").ExternalOperations(tolerate(OpCopy))
	require.Len(t, ops, 1)
	assert.Equal(t, OpDeleteDir, ops[0].Kind)
}

func TestDirectory_IdenticalOperationsAreDistinct(t *testing.T) {
	t.Parallel()
	fs, dir := newTestTree(t)

	require.NoError(t, fs.QueueCopyDirectory("/a", "/b"))
	// same kind and paths, recorded separately
	root := dir("/")
	first := root.operations[0]
	second := &Operation{Kind: first.Kind, Index: 99, OldDir: first.OldDir, NewDir: first.NewDir}
	root.enqueue(second)
	dir("/b").addInbound(second)

	assert.Len(t, dir("/b").ExternalOperations(nil), 2)
}

func TestDirectory_QueueMembership(t *testing.T) {
	t.Parallel()
	fs, dir := newTestTree(t)

	require.NoError(t, fs.QueueFileDelete("/d/file.ts"))
	require.NoError(t, fs.QueueFileDelete("/d/file.ts"))
	d := dir("/d")

	assert.True(t, d.IsFileQueuedForDelete("/d/file.ts"))
	assert.False(t, d.IsFileQueuedForDelete("/d/other.ts"))
	assert.True(t, d.DequeueFileDelete("/d/file.ts"))
	assert.False(t, d.IsFileQueuedForDelete("/d/file.ts"), "every matching delete is dropped")
	assert.False(t, d.DequeueFileDelete("/d/file.ts"))

	require.NoError(t, fs.QueueDirectoryDelete("/d/sub"))
	assert.True(t, d.DequeueDirDelete("/d/sub"))
	assert.Empty(t, d.operations)
}

func TestDirectory_RemoveMatchingOperations(t *testing.T) {
	t.Parallel()
	fs, dir := newTestTree(t)

	fs.QueueMkdir("/m/a")
	fs.QueueMkdir("/m/b")
	require.NoError(t, fs.QueueCopyDirectory("/src", "/m/c"))

	n := dir("/m").RemoveMatchingOperations(func(op *Operation) bool {
		return op.Kind == OpMkdir
	})
	assert.Equal(t, 2, n)
	assert.Empty(t, dir("/m").operations)
	assert.Len(t, dir("/m/c").inboundOperations, 1)

	n = dir("/m/c").RemoveMatchingOperations(func(op *Operation) bool { return op.isMoveOrCopy() })
	assert.Equal(t, 1, n)
}
