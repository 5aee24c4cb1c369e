// Package stagefs contains core domain types and interfaces for the staged,
// transactional file system
package stagefs

import (
	"context"

	"github.com/brettbedarf/stagefs/config"
)

// DirEntry describes one entry of a directory listing. Path is always a
// standardized absolute path.
type DirEntry struct {
	Path        string `json:"path"`
	IsFile      bool   `json:"isFile"`
	IsDirectory bool   `json:"isDirectory"`
	IsSymlink   bool   `json:"isSymlink"`
}

// BackingStore is the storage the staged file system commits to. Paths are
// absolute and slash separated.
//
// Mutating methods and reads must return an error matching [IsNotFound] when
// the target does not exist so repeated deletes can be treated as idempotent.
type BackingStore interface {
	FileExists(ctx context.Context, path string) bool
	DirectoryExists(ctx context.Context, path string) bool

	// ReadFile returns the file's text or a [*FileNotFoundError]
	ReadFile(ctx context.Context, path string) (string, error)
	// ReadDir returns the immediate entries of a directory or a
	// [*DirectoryNotFoundError]
	ReadDir(ctx context.Context, path string) ([]DirEntry, error)

	// WriteFile creates or truncates the file. The parent directory must exist.
	WriteFile(ctx context.Context, path string, text string) error
	// Mkdir creates the directory and any missing ancestors. It is not an
	// error if the directory already exists.
	Mkdir(ctx context.Context, path string) error
	// Delete removes a file or a directory with all its contents.
	Delete(ctx context.Context, path string) error
	// Move renames src to dest. When dest is an existing directory the
	// contents of src are merged into it. Missing parents of dest are created.
	Move(ctx context.Context, src, dest string) error
	// Copy recursively copies src to dest, merging into dest if it exists.
	// Missing parents of dest are created.
	Copy(ctx context.Context, src, dest string) error

	// Glob returns the files matching any of the patterns. Patterns prefixed
	// with "!" exclude matches.
	Glob(ctx context.Context, patterns []string) ([]string, error)

	IsCaseSensitive() bool
	CurrentDirectory() string
	Realpath(path string) string
}

// StoreProvider is a factory for concrete [BackingStore] implementations
// generated from the store section of the config
type StoreProvider interface {
	NewStore(cfg *config.StoreConfig) (BackingStore, error)
}
