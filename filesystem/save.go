package filesystem

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/internal/util"
)

// SaveForDirectory commits the operations queued on p and its descendants to
// the backing store in the order they were queued. On failure the failing
// operation is dropped and the remaining ones stay queued.
func (fs *FileSystem) SaveForDirectory(ctx context.Context, p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.saveForDirectory(ctx, fs.standardize(p))
}

func (fs *FileSystem) saveForDirectory(ctx context.Context, p string) error {
	logger := util.GetLogger("FileSystem.SaveForDirectory")
	start := time.Now()

	dir := fs.getOrCreateDirectory(p)
	if err := fs.throwIfHasExternalOperations(dir, "save directory", nil); err != nil {
		logger.Debug().Err(err).Msg("Rejected save")
		return err
	}
	if !dir.isDeleted {
		if err := fs.ensureDirectoryExists(ctx, dir); err != nil {
			logger.Error().Err(err).Str("path", p).Msg("Failed to create directory")
			return err
		}
	}

	ops := fs.pendingOperations(dir)
	for _, op := range ops {
		fs.drain(op)
		if err := fs.execute(ctx, op); err != nil {
			logger.Error().Err(err).Str("op", op.String()).Msg("Failed to save operation")
			return fmt.Errorf("save %s: %s: %w", p, op.Kind, err)
		}
		logger.Trace().Str("op", op.String()).Msg("Executed operation")
	}

	logger.Info().
		Str("path", p).
		Int("operations", len(ops)).
		Dur("took", time.Since(start)).
		Msg("Saved directory")
	return nil
}

// pendingOperations collects the operations queued on dir and its
// descendants in replay order
func (fs *FileSystem) pendingOperations(dir *Directory) []*Operation {
	var ops []*Operation
	for _, d := range append([]*Directory{dir}, dir.Descendants()...) {
		ops = append(ops, d.operations...)
	}
	slices.SortFunc(ops, func(a, b *Operation) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return ops
}

// drain removes op from its owner's queue and from the destination's inbound
// list
func (fs *FileSystem) drain(op *Operation) {
	if owner, ok := fs.tree.nodes[op.owner]; ok {
		owner.drainOperation(op)
	}
	if op.isMoveOrCopy() {
		if dest, ok := fs.tree.nodes[op.NewDir]; ok {
			dest.drainOperation(op)
		}
	}
}

func (fs *FileSystem) execute(ctx context.Context, op *Operation) error {
	switch op.Kind {
	case OpMkdir:
		return fs.store.Mkdir(ctx, op.Dir)
	case OpDeleteFile:
		return ignoreNotFound(fs.store.Delete(ctx, op.FilePath))
	case OpDeleteDir:
		if err := ignoreNotFound(fs.store.Delete(ctx, op.Dir)); err != nil {
			return err
		}
		if dir, ok := fs.tree.nodes[op.Dir]; ok {
			fs.pruneDeleted(dir)
		}
		return nil
	case OpCopy:
		return fs.store.Copy(ctx, op.OldDir, op.NewDir)
	case OpMove:
		if err := fs.store.Move(ctx, op.OldDir, op.NewDir); err != nil {
			return err
		}
		// the source only lives on in the model if it was recreated since
		if src, ok := fs.tree.nodes[op.OldDir]; ok && src.isDeleted {
			fs.removeDirAndSubDirs(src)
		}
		return nil
	default:
		return fmt.Errorf("unknown operation kind %s", op.Kind)
	}
}

// pruneDeleted forgets the nodes beneath and including dir that are still
// deleted once their delete has reached the store
func (fs *FileSystem) pruneDeleted(dir *Directory) {
	if dir.isDeleted {
		fs.removeDirAndSubDirs(dir)
		return
	}
	for _, child := range dir.childDirs.Values() {
		fs.pruneDeleted(child)
	}
}

// ensureDirectoryExists creates dir in the backing store and drops the queued
// mkdir operations for dir and its ancestors that this makes redundant
func (fs *FileSystem) ensureDirectoryExists(ctx context.Context, dir *Directory) error {
	if !dir.IsRoot() {
		if err := fs.store.Mkdir(ctx, dir.path); err != nil {
			return err
		}
	}
	for _, d := range append([]*Directory{dir}, dir.Ancestors()...) {
		fs.queueOwner(d).RemoveMatchingOperations(func(op *Operation) bool {
			return op.Kind == OpMkdir && op.Dir == d.path
		})
	}
	return nil
}

func ignoreNotFound(err error) error {
	if stagefs.IsNotFound(err) {
		return nil
	}
	return err
}
