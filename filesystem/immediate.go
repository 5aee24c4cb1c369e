package filesystem

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/internal/util"
)

// WriteFile writes text to p right away, creating missing parent directories.
// A queued delete of p is cancelled.
func (fs *FileSystem) WriteFile(ctx context.Context, p, text string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.writeFile(ctx, fs.standardize(p), text)
}

func (fs *FileSystem) writeFile(ctx context.Context, p, text string) error {
	logger := util.GetLogger("FileSystem.WriteFile")

	if err := fs.throwIfLibFile(p, "write file"); err != nil {
		return err
	}
	parent := fs.getOrCreateParentDirectory(p)
	if err := fs.throwIfHasExternalOperations(parent, "write file", nil); err != nil {
		logger.Debug().Err(err).Msg("Rejected write")
		return err
	}

	parent.DequeueFileDelete(p)
	if err := fs.ensureDirectoryExists(ctx, parent); err != nil {
		logger.Error().Err(err).Str("path", parent.path).Msg("Failed to create parent directory")
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err := fs.store.WriteFile(ctx, p, text); err != nil {
		logger.Error().Err(err).Str("path", p).Msg("Failed to write file")
		return fmt.Errorf("write %s: %w", p, err)
	}
	logger.Debug().Str("path", p).Int("size", len(text)).Msg("Wrote file")
	return nil
}

// DeleteFileImmediately removes the file at p now. A missing file is not an
// error. On any other failure the delete is queued again before the error is
// returned.
func (fs *FileSystem) DeleteFileImmediately(ctx context.Context, p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = fs.standardize(p)
	if err := fs.throwIfLibFile(p, "delete file"); err != nil {
		return err
	}
	parent := fs.getOrCreateParentDirectory(p)
	if err := fs.throwIfHasExternalOperations(parent, "delete file", nil); err != nil {
		return err
	}
	return fs.deleteFileImmediately(ctx, parent, p)
}

func (fs *FileSystem) deleteFileImmediately(ctx context.Context, parent *Directory, p string) error {
	logger := util.GetLogger("FileSystem.DeleteFileImmediately")

	parent.DequeueFileDelete(p)
	fs.casing.RemovePath(p)
	if err := fs.store.Delete(ctx, p); err != nil && !stagefs.IsNotFound(err) {
		fs.queueFileDelete(p)
		logger.Error().Err(err).Str("path", p).Msg("Failed to delete file, delete re-queued")
		return fmt.Errorf("delete %s: %w", p, err)
	}
	logger.Debug().Str("path", p).Msg("Deleted file")
	return nil
}

// DeleteDirectoryImmediately removes p and its contents now and forgets its
// subtree. On a failure other than not-found the subtree is restored and a
// directory delete is queued in its place.
func (fs *FileSystem) DeleteDirectoryImmediately(ctx context.Context, p string) error {
	logger := util.GetLogger("FileSystem.DeleteDirectoryImmediately")
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = fs.standardize(p)
	dir := fs.getOrCreateDirectory(p)
	if err := fs.throwIfHasExternalOperations(dir, "delete directory", nil); err != nil {
		return err
	}

	rb := &rollback{}
	defer rb.Undo()
	rb.Add(fs.removeDirAndSubDirs(dir))
	fs.casing.RemovePath(p)

	if err := fs.store.Delete(ctx, p); err != nil && !stagefs.IsNotFound(err) {
		rb.Undo()
		fs.queueDirectoryDelete(dir)
		logger.Error().Err(err).Str("path", p).Msg("Failed to delete directory, delete re-queued")
		return fmt.Errorf("delete %s: %w", p, err)
	}
	rb.Discard()
	fs.markEverDeleted(p)
	logger.Debug().Str("path", p).Msg("Deleted directory")
	return nil
}

// MoveFileImmediately writes text to newPath and then deletes oldPath. The
// caller supplies the text since it may hold changes the store has not seen.
// If the old file cannot be deleted its delete stays queued.
func (fs *FileSystem) MoveFileImmediately(ctx context.Context, oldPath, newPath, text string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	oldPath = fs.standardize(oldPath)
	newPath = fs.standardize(newPath)
	for _, p := range []string{oldPath, newPath} {
		if err := fs.throwIfLibFile(p, "move file"); err != nil {
			return err
		}
	}
	oldParent := fs.getOrCreateParentDirectory(oldPath)
	if err := fs.throwIfHasExternalOperations(oldParent, "move file", nil); err != nil {
		return err
	}

	if err := fs.writeFile(ctx, newPath, text); err != nil {
		return err
	}
	return fs.deleteFileImmediately(ctx, oldParent, oldPath)
}

// MoveDirectoryImmediately saves pending work under src and dest, then moves
// src to dest in the backing store and re-homes the known subtree
func (fs *FileSystem) MoveDirectoryImmediately(ctx context.Context, src, dest string) error {
	return fs.moveOrCopyImmediately(ctx, OpMove, src, dest)
}

// CopyDirectoryImmediately saves pending work under src and dest, then copies
// src into dest in the backing store
func (fs *FileSystem) CopyDirectoryImmediately(ctx context.Context, src, dest string) error {
	return fs.moveOrCopyImmediately(ctx, OpCopy, src, dest)
}

func (fs *FileSystem) moveOrCopyImmediately(ctx context.Context, kind OperationKind, src, dest string) error {
	name := "FileSystem.CopyDirectoryImmediately"
	if kind == OpMove {
		name = "FileSystem.MoveDirectoryImmediately"
	}
	logger := util.GetLogger(name)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	src = fs.standardize(src)
	dest = fs.standardize(dest)
	command := kind.String() + " directory"

	srcDir, destDir, err := fs.prepareMoveOrCopy(command, src, dest)
	if err != nil {
		logger.Debug().Err(err).Msg("Rejected immediate " + kind.String())
		return err
	}

	if err := fs.saveForDirectory(ctx, src); err != nil {
		return err
	}
	if destDir.hasOperations() {
		if err := fs.saveForDirectory(ctx, dest); err != nil {
			return err
		}
	} else if parent := destDir.Parent(); parent != nil {
		if err := fs.ensureDirectoryExists(ctx, parent); err != nil {
			return fmt.Errorf("%s %s: %w", command, dest, err)
		}
	}

	if kind == OpMove {
		err = fs.store.Move(ctx, src, dest)
	} else {
		err = fs.store.Copy(ctx, src, dest)
	}
	if err != nil {
		logger.Error().Err(err).Str("src", src).Str("dest", dest).Msg("Backing store failed")
		return fmt.Errorf("%s %s to %s: %w", command, src, dest, err)
	}

	fs.rehome(srcDir, destDir)
	if kind == OpMove {
		fs.removeDirAndSubDirs(srcDir)
		fs.markEverDeleted(src)
		fs.casing.RemovePath(src)
	}
	logger.Debug().Str("src", src).Str("dest", dest).Msg("Applied directory " + kind.String())
	return nil
}

// rehome mirrors the live directories known under src beneath dest
func (fs *FileSystem) rehome(src, dest *Directory) {
	dest.setIsDeleted(false)
	for _, d := range src.Descendants() {
		if d.isDeleted {
			continue
		}
		rel := strings.TrimPrefix(d.path, src.path)
		fs.getOrCreateDirectory(fs.casing.GetPath(path.Join(dest.path, rel)))
	}
}
