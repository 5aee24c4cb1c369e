package filesystem

import (
	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/internal/util"
)

// QueueMkdir records that p should exist after the next save covering its
// parent. The node and all its ancestors stop being deleted.
func (fs *FileSystem) QueueMkdir(p string) {
	logger := util.GetLogger("FileSystem.QueueMkdir")
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = fs.standardize(p)
	dir := fs.getOrCreateDirectory(p)
	dir.setIsDeleted(false)

	op := fs.nextOperation(OpMkdir)
	op.Dir = p
	fs.queueOwner(dir).enqueue(op)
	logger.Debug().Str("op", op.String()).Msg("Queued operation")
}

// QueueFileDelete records that the file at p should be removed on the next
// save covering its parent. Library files cannot be deleted.
func (fs *FileSystem) QueueFileDelete(p string) error {
	logger := util.GetLogger("FileSystem.QueueFileDelete")
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = fs.standardize(p)
	if err := fs.throwIfLibFile(p, "delete file"); err != nil {
		return err
	}
	fs.queueFileDelete(p)
	logger.Debug().Str("path", p).Msg("Queued file delete")
	return nil
}

func (fs *FileSystem) queueFileDelete(p string) {
	op := fs.nextOperation(OpDeleteFile)
	op.FilePath = p
	fs.getOrCreateParentDirectory(p).enqueue(op)
	fs.casing.RemovePath(p)
}

// RemoveFileDelete cancels any queued delete of the file at p
func (fs *FileSystem) RemoveFileDelete(p string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = fs.standardize(p)
	if parent, ok := fs.tree.nodes[dirPath(p)]; ok {
		parent.DequeueFileDelete(p)
	}
}

// QueueDirectoryDelete marks p and every known descendant deleted and records
// the delete on the parent's queue. Deleting an already deleted directory is
// a no-op.
func (fs *FileSystem) QueueDirectoryDelete(p string) error {
	logger := util.GetLogger("FileSystem.QueueDirectoryDelete")
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = fs.standardize(p)
	dir := fs.getOrCreateDirectory(p)
	if dir.isDeleted {
		logger.Trace().Str("path", p).Msg("Directory already queued for deletion")
		return nil
	}
	if err := fs.throwIfHasExternalOperations(dir, "delete directory", tolerate(OpDeleteDir)); err != nil {
		logger.Debug().Err(err).Msg("Rejected directory delete")
		return err
	}
	op := fs.queueDirectoryDelete(dir)
	logger.Debug().Str("op", op.String()).Msg("Queued operation")
	return nil
}

func (fs *FileSystem) queueDirectoryDelete(dir *Directory) *Operation {
	dir.setIsDeleted(true)
	fs.markEverDeleted(dir.path)
	op := fs.nextOperation(OpDeleteDir)
	op.Dir = dir.path
	fs.queueOwner(dir).enqueue(op)
	fs.casing.RemovePath(dir.path)
	return op
}

// QueueCopyDirectory records a recursive copy of src into dest, merging into
// dest if it already exists
func (fs *FileSystem) QueueCopyDirectory(src, dest string) error {
	return fs.queueMoveOrCopy(OpCopy, src, dest)
}

// QueueMoveDirectory records a move of src to dest. src is deleted in the
// model right away.
func (fs *FileSystem) QueueMoveDirectory(src, dest string) error {
	return fs.queueMoveOrCopy(OpMove, src, dest)
}

func (fs *FileSystem) queueMoveOrCopy(kind OperationKind, src, dest string) error {
	name := "FileSystem.QueueCopyDirectory"
	if kind == OpMove {
		name = "FileSystem.QueueMoveDirectory"
	}
	logger := util.GetLogger(name)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	src = fs.standardize(src)
	dest = fs.standardize(dest)
	command := kind.String() + " directory"

	srcDir, destDir, err := fs.prepareMoveOrCopy(command, src, dest)
	if err != nil {
		logger.Debug().Err(err).Msg("Rejected directory " + kind.String())
		return err
	}

	op := fs.nextOperation(kind)
	op.OldDir = src
	op.NewDir = dest
	fs.getOrCreateDirectory(commonAncestor(src, dest)).enqueue(op)
	destDir.addInbound(op)
	destDir.setIsDeleted(false)

	if kind == OpMove {
		srcDir.setIsDeleted(true)
		fs.markEverDeleted(src)
		fs.casing.RemovePath(src)
	}
	logger.Debug().Str("op", op.String()).Msg("Queued operation")
	return nil
}

// prepareMoveOrCopy validates a directory move or copy and returns both
// nodes. Shared by the queued and immediate variants.
func (fs *FileSystem) prepareMoveOrCopy(command, src, dest string) (*Directory, *Directory, error) {
	if isSameOrInside(dest, src) {
		return nil, nil, &stagefs.InvalidOperationError{
			Command: command,
			Path:    src,
			Reason:  "destination " + dest + " is the source or inside it",
		}
	}
	srcDir := fs.getOrCreateDirectory(src)
	if srcDir.isDeleted {
		return nil, nil, &stagefs.InvalidOperationError{
			Command: command,
			Path:    src,
			Reason:  "source is queued for deletion",
		}
	}
	destDir := fs.getOrCreateDirectory(dest)
	if err := fs.throwIfHasExternalOperations(srcDir, command, nil); err != nil {
		return nil, nil, err
	}
	if err := fs.throwIfHasExternalOperations(destDir, command, nil); err != nil {
		return nil, nil, err
	}
	return srcDir, destDir, nil
}

// queueOwner is the node whose queue holds operations about dir: its parent,
// or dir itself at the root
func (fs *FileSystem) queueOwner(dir *Directory) *Directory {
	if parent := dir.Parent(); parent != nil {
		return parent
	}
	return dir
}
