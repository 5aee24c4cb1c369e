package filesystem

import (
	"context"
	"errors"
	"testing"

	"github.com/brettbedarf/stagefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWriteFile_CancelsQueuedDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newTestFS(t)
	seed(t, store, map[string]string{"/d/f.ts": "old"})

	require.NoError(t, fs.QueueFileDelete("/d/f.ts"))
	require.NoError(t, fs.WriteFile(ctx, "/d/f.ts", "new"))
	assert.False(t, fs.IsPathQueuedForDeletion("/d/f.ts"))

	require.NoError(t, fs.SaveForDirectory(ctx, "/"))
	text, err := store.ReadFile(ctx, "/d/f.ts")
	require.NoError(t, err)
	assert.Equal(t, "new", text)
}

func TestWriteFile_CreatesParents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newTestFS(t)

	require.NoError(t, fs.WriteFile(ctx, "/a/b/c.ts", "c"))
	assert.True(t, store.DirectoryExists(ctx, "/a/b"))
	assert.True(t, fs.FileExists(ctx, "/a/b/c.ts"))
}

func TestWriteFile_Rejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("library file", func(t *testing.T) {
		t.Parallel()
		fs, _ := newTestFS(t)
		err := fs.WriteFile(ctx, fs.LibFilePaths()[0], "x")
		assert.ErrorIs(t, err, stagefs.ErrInvalidOperation)
	})

	t.Run("pending copy into parent", func(t *testing.T) {
		t.Parallel()
		fs, store := newTestFS(t)
		require.NoError(t, fs.QueueCopyDirectory("/a", "/b"))
		err := fs.WriteFile(ctx, "/b/x.ts", "x")
		assert.ErrorIs(t, err, stagefs.ErrInvalidOperation)
		assert.False(t, store.FileExists(ctx, "/b/x.ts"))
	})
}

func TestWriteFile_ParentMkdirFailureKeepsQueuedMkdir(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newMockFS(t)
	store.On("Mkdir", mock.Anything, "/a").Return(errors.New("read-only")).Once()
	store.On("Mkdir", mock.Anything, "/a").Return(nil).Once()

	fs.QueueMkdir("/a")
	err := fs.WriteFile(ctx, "/a/f.ts", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	root := fs.tree.nodes["/"]
	require.Len(t, root.operations, 1)
	assert.Equal(t, OpMkdir, root.operations[0].Kind)

	require.NoError(t, fs.SaveForDirectory(ctx, "/"))
	assert.Empty(t, root.operations)
	store.AssertNumberOfCalls(t, "Mkdir", 2)
	store.AssertNotCalled(t, "WriteFile", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestDeleteFileImmediately_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newTestFS(t)
	seed(t, store, map[string]string{"/d/f.ts": "x"})

	require.NoError(t, fs.DeleteFileImmediately(ctx, "/d/f.ts"))
	assert.False(t, store.FileExists(ctx, "/d/f.ts"))
	require.NoError(t, fs.DeleteFileImmediately(ctx, "/d/f.ts"))

	err := fs.DeleteFileImmediately(ctx, fs.LibFilePaths()[0])
	assert.ErrorIs(t, err, stagefs.ErrInvalidOperation)
}

func TestDeleteFileImmediately_FailureRequeues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newMockFS(t)
	store.On("Delete", mock.Anything, "/d/f.ts").Return(errors.New("busy")).Once()

	err := fs.DeleteFileImmediately(ctx, "/d/f.ts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busy")
	assert.True(t, fs.IsPathQueuedForDeletion("/d/f.ts"))
	store.AssertExpectations(t)
}

func TestDeleteDirectoryImmediately(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newTestFS(t)
	seed(t, store, map[string]string{"/d/sub/f.ts": "x"})

	fs.QueueMkdir("/d/sub/x")
	require.NoError(t, fs.DeleteDirectoryImmediately(ctx, "/d"))
	assert.False(t, store.DirectoryExists(ctx, "/d"))
	assert.NotContains(t, fs.tree.nodes, "/d/sub")

	// the forgotten mkdir does not bring anything back
	require.NoError(t, fs.SaveForDirectory(ctx, "/"))
	assert.False(t, store.DirectoryExists(ctx, "/d"))

	require.NoError(t, fs.DeleteDirectoryImmediately(ctx, "/d"), "missing directory is not an error")
}

func TestDeleteDirectoryImmediately_FailureRestoresAndRequeues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newMockFS(t)
	store.On("Delete", mock.Anything, "/d").Return(errors.New("locked")).Once()

	fs.QueueMkdir("/d/sub")
	err := fs.DeleteDirectoryImmediately(ctx, "/d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	assert.Contains(t, fs.tree.nodes, "/d/sub")
	assert.True(t, fs.IsPathQueuedForDeletion("/d"))
	root := fs.tree.nodes["/"]
	require.NotEmpty(t, root.operations)
	assert.Equal(t, OpDeleteDir, root.operations[len(root.operations)-1].Kind)
	store.AssertExpectations(t)
}

func TestDeleteDirectoryImmediately_RejectsPendingCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, _ := newTestFS(t)

	require.NoError(t, fs.QueueCopyDirectory("/d", "/e"))
	err := fs.DeleteDirectoryImmediately(ctx, "/d")
	assert.ErrorIs(t, err, stagefs.ErrInvalidOperation)
}

func TestMoveFileImmediately(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newTestFS(t)
	seed(t, store, map[string]string{"/a/f.ts": "old"})

	require.NoError(t, fs.MoveFileImmediately(ctx, "/a/f.ts", "/b/g.ts", "new"))
	assert.False(t, store.FileExists(ctx, "/a/f.ts"))
	text, err := store.ReadFile(ctx, "/b/g.ts")
	require.NoError(t, err)
	assert.Equal(t, "new", text)

	err = fs.MoveFileImmediately(ctx, "/b/g.ts", fs.LibFilePaths()[0], "x")
	assert.ErrorIs(t, err, stagefs.ErrInvalidOperation)
	assert.True(t, store.FileExists(ctx, "/b/g.ts"))
}

func TestMoveDirectoryImmediately(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newTestFS(t)
	seed(t, store, map[string]string{"/src/sub/f.ts": "x"})

	fs.QueueMkdir("/src/sub/empty")
	require.NoError(t, fs.MoveDirectoryImmediately(ctx, "/src", "/dst"))

	assert.False(t, store.DirectoryExists(ctx, "/src"))
	assert.True(t, store.FileExists(ctx, "/dst/sub/f.ts"))
	assert.True(t, store.DirectoryExists(ctx, "/dst/sub/empty"), "pending work under src is saved first")
	assert.NotContains(t, fs.tree.nodes, "/src")
	assert.Contains(t, fs.tree.nodes, "/dst/sub/empty")

	entries, err := fs.ReadDir(ctx, "/dst")
	require.NoError(t, err)
	assert.Equal(t, []string{"/dst/sub"}, entryPaths(entries))
}

func TestCopyDirectoryImmediately(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newTestFS(t)
	seed(t, store, map[string]string{"/src/f.ts": "x"})

	require.NoError(t, fs.CopyDirectoryImmediately(ctx, "/src", "/dst/nested"))
	assert.True(t, store.FileExists(ctx, "/src/f.ts"))
	assert.True(t, fs.FileExists(ctx, "/dst/nested/f.ts"))
	assert.Contains(t, fs.tree.nodes, "/src")
}

func TestMoveOrCopyImmediately_Rejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs, store := newTestFS(t)
	seed(t, store, map[string]string{"/src/f.ts": "x"})

	require.NoError(t, fs.QueueCopyDirectory("/other", "/dst"))
	err := fs.MoveDirectoryImmediately(ctx, "/src", "/dst")
	assert.ErrorIs(t, err, stagefs.ErrInvalidOperation)
	assert.True(t, store.FileExists(ctx, "/src/f.ts"))

	err = fs.CopyDirectoryImmediately(ctx, "/src", "/src/inner")
	assert.ErrorIs(t, err, stagefs.ErrInvalidOperation)
}
