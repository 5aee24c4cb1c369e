package filesystem

import (
	"context"
	"fmt"
	"slices"

	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/internal/util"
)

// FileExists reports whether p is a file in the model: library files always
// exist, files queued for deletion never do and everything else is up to the
// backing store
func (fs *FileSystem) FileExists(ctx context.Context, p string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = fs.standardize(p)
	if fs.overlay.Contains(p) {
		return true
	}
	if fs.isPathQueuedForDeletion(p) {
		return false
	}
	return fs.store.FileExists(ctx, p)
}

// DirectoryExists asks the backing store directly. Use [FileSystem.ReadDir]
// to find out whether a directory's contents can be trusted.
func (fs *FileSystem) DirectoryExists(ctx context.Context, p string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.store.DirectoryExists(ctx, fs.standardize(p))
}

// ReadFile returns the text of p, consulting the library overlay first.
// A file queued for deletion is reported as not found.
func (fs *FileSystem) ReadFile(ctx context.Context, p string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.readFile(ctx, fs.standardize(p))
}

func (fs *FileSystem) readFile(ctx context.Context, p string) (string, error) {
	logger := util.GetLogger("FileSystem.ReadFile")

	if text, ok := fs.overlay.Read(p); ok {
		logger.Trace().Str("path", p).Msg("Read library file")
		return text, nil
	}
	if fs.isPathQueuedForDeletion(p) {
		return "", &stagefs.FileNotFoundError{Path: p}
	}
	text, err := fs.store.ReadFile(ctx, p)
	if err != nil {
		return "", err
	}
	logger.Trace().Str("path", p).Int("size", len(text)).Msg("Read file")
	return text, nil
}

// ReadFileOrNotExists is [FileSystem.ReadFile] with not-found reported as
// ok == false instead of an error
func (fs *FileSystem) ReadFileOrNotExists(ctx context.Context, p string) (text string, ok bool, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	text, err = fs.readFile(ctx, fs.standardize(p))
	if stagefs.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// ReadDir lists the immediate children of p as the model sees them: known
// directories, library files and the backing store's entries minus anything
// queued for deletion. Reading a deleted directory, or one beneath a
// directory that was ever deleted or moved, fails with an InvalidOperation.
func (fs *FileSystem) ReadDir(ctx context.Context, p string) ([]stagefs.DirEntry, error) {
	logger := util.GetLogger("FileSystem.ReadDir")
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = fs.standardize(p)
	dir, known := fs.tree.nodes[p]
	check := dir
	if !known {
		check = fs.nearestDirectory(p)
	}
	if check != nil && check.isDeleted {
		return nil, &stagefs.InvalidOperationError{
			Command: "read directory",
			Path:    p,
			Reason:  "directory is queued for deletion",
		}
	}
	if (check != nil && check.WasEverDeleted()) || fs.wasEverDeleted(p) {
		return nil, &stagefs.InvalidOperationError{
			Command: "read directory",
			Path:    p,
			Reason:  "it or an ancestor was deleted or moved and its listing can no longer be trusted",
		}
	}

	var entries []stagefs.DirEntry
	if known {
		entries = dir.childEntries()
	}
	for _, f := range fs.overlay.FilesIn(p) {
		entries = append(entries, stagefs.DirEntry{Path: f, IsFile: true})
	}

	stored, err := fs.store.ReadDir(ctx, p)
	if err != nil {
		if !stagefs.IsNotFound(err) || !fs.isKnownDirectory(p, dir) {
			return nil, err
		}
		logger.Trace().Str("path", p).Msg("Directory only exists in the model")
	}
	for _, e := range stored {
		e.Path = fs.standardize(e.Path)
		if fs.isPathQueuedForDeletion(e.Path) {
			continue
		}
		entries = append(entries, e)
	}

	slices.SortStableFunc(entries, func(a, b stagefs.DirEntry) int {
		return fs.tree.compare(a.Path, b.Path)
	})
	entries = slices.CompactFunc(entries, func(a, b stagefs.DirEntry) bool {
		return fs.tree.compare(a.Path, b.Path) == 0
	})
	logger.Trace().Str("path", p).Int("entries", len(entries)).Msg("Read directory")
	return entries, nil
}

// isKnownDirectory reports whether the model expects p to exist even though
// the backing store has not seen it yet. dir is p's node, if any.
func (fs *FileSystem) isKnownDirectory(p string, dir *Directory) bool {
	if len(fs.overlay.FilesIn(p)) > 0 {
		return true
	}
	if dir == nil {
		return false
	}
	if dir.childDirs.Len() > 0 {
		return true
	}
	return slices.ContainsFunc(fs.queueOwner(dir).operations, func(op *Operation) bool {
		return op.Kind == OpMkdir && op.Dir == dir.path
	})
}

// Glob returns the files matching patterns, minus those queued for deletion.
// Patterns prefixed with "!" exclude matches.
func (fs *FileSystem) Glob(ctx context.Context, patterns []string) ([]string, error) {
	logger := util.GetLogger("FileSystem.Glob")
	fs.mu.Lock()
	defer fs.mu.Unlock()

	matches, err := fs.store.Glob(ctx, patterns)
	if err != nil {
		return nil, fmt.Errorf("glob %v: %w", patterns, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = fs.standardize(m)
		if fs.isPathQueuedForDeletion(m) {
			continue
		}
		out = append(out, m)
	}
	logger.Trace().Strs("patterns", patterns).Int("matches", len(out)).Msg("Globbed")
	return out, nil
}
