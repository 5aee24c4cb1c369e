package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/stagefs/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiskStore_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewDiskStore(filepath.Join(t.TempDir(), "missing"), DiskStoreOptions{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewDiskStore(file, DiskStoreOptions{})
	assert.Error(t, err)
}

func TestDiskStore_MapsRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s, err := NewDiskStore(root, DiskStoreOptions{CurrentDirectory: "/proj"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Mkdir(ctx, "/proj"))
	require.NoError(t, s.WriteFile(ctx, "/proj/a.ts", "a"))

	data, err := os.ReadFile(filepath.Join(root, "proj", "a.ts"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	// paths cannot climb out of the root
	assert.Equal(t, filepath.Join(s.root, "etc"), s.hostPath("/../../etc"))
	assert.Equal(t, "/proj", s.CurrentDirectory())
}

func TestDiskStore_Symlinks(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s, err := NewDiskStore(root, DiskStoreOptions{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Mkdir(ctx, "/real"))
	require.NoError(t, s.WriteFile(ctx, "/real/a.ts", "a"))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	assert.Equal(t, "/real/a.ts", s.Realpath("/link/a.ts"))
	assert.Equal(t, "/missing", s.Realpath("/missing"))

	entries, err := s.ReadDir(ctx, "/")
	require.NoError(t, err)
	var link bool
	for _, e := range entries {
		if e.Path == "/link" {
			link = true
			assert.True(t, e.IsSymlink)
			assert.True(t, e.IsDirectory)
		}
	}
	assert.True(t, link)
}

func TestDiskStore_CaseSensitivityOverride(t *testing.T) {
	t.Parallel()

	s, err := NewDiskStore(t.TempDir(), DiskStoreOptions{CaseSensitive: util.Pointer(false)})
	require.NoError(t, err)
	assert.False(t, s.IsCaseSensitive())

	s, err = NewDiskStore(t.TempDir(), DiskStoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, defaultCaseSensitive(), s.IsCaseSensitive())
}
