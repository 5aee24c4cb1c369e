package filesystem

import (
	"path"
	"strings"
	"sync"

	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/config"
	"github.com/brettbedarf/stagefs/internal/util"
	"github.com/brettbedarf/stagefs/libfiles"
	"github.com/google/uuid"
)

// FileSystem stages mutations against an in-memory directory model and
// commits them to a [stagefs.BackingStore] on save. Immediate operations
// apply right away while keeping the model in sync.
//
// Every public method holds mu for its whole duration, backing store calls
// included, so callers on different goroutines are serialized.
type FileSystem struct {
	cfg       *config.Config
	store     stagefs.BackingStore
	tree      *dirTree
	casing    *PathCasingMaintainer
	overlay   *libfiles.Overlay // nil when library files are skipped
	lastIndex uint64            // last operation index handed out
	mu        sync.Mutex

	// paths deleted or moved away at any point, kept after their nodes are
	// pruned
	everDeleted *SortedIndex[string, string]
}

// New creates a FileSystem over store. A nil cfg uses the defaults.
func New(cfg *config.Config, store stagefs.BackingStore) *FileSystem {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	caseSensitive := store.IsCaseSensitive()
	compare := NewPathComparer(caseSensitive)
	fs := &FileSystem{
		cfg:         cfg,
		store:       store,
		tree:        newDirTree(compare),
		casing:      NewPathCasingMaintainer(caseSensitive),
		everDeleted: NewSortedIndex(func(p string) string { return p }, compare),
	}
	if !cfg.SkipLoadingLibFiles {
		fs.overlay = libfiles.NewOverlay(fs.standardize(cfg.LibFolderPath), fs.casing.GetPath)
	}

	logger := util.GetLogger("FileSystem.New")
	logger.Debug().
		Bool("caseSensitive", caseSensitive).
		Str("libFolder", fs.overlay.Folder()).
		Msg("Created staged file system")
	return fs
}

// GetStandardizedPath returns the absolute, cleaned, canonically cased form
// of p that is used as identity throughout the model
func (fs *FileSystem) GetStandardizedPath(p string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.standardize(p)
}

// CurrentDirectory returns the store's base for relative paths
func (fs *FileSystem) CurrentDirectory() string {
	return fs.store.CurrentDirectory()
}

// LibFilePaths returns the overlay file paths; empty when library files are
// skipped. Consumers can treat these as always present and immutable.
func (fs *FileSystem) LibFilePaths() []string {
	return fs.overlay.Paths()
}

// Realpath resolves p through the backing store and standardizes the result
func (fs *FileSystem) Realpath(p string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.standardize(fs.store.Realpath(fs.standardize(p)))
}

func (fs *FileSystem) standardize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if !path.IsAbs(p) {
		p = path.Join(fs.store.CurrentDirectory(), p)
	}
	return fs.casing.GetPath(path.Clean(p))
}

func (fs *FileSystem) nextOperation(kind OperationKind) *Operation {
	fs.lastIndex++
	return &Operation{Kind: kind, Index: fs.lastIndex, ID: uuid.New()}
}

// getOrCreateDirectory returns the node for p, creating it and any missing
// ancestors in the arena
func (fs *FileSystem) getOrCreateDirectory(p string) *Directory {
	if dir, ok := fs.tree.nodes[p]; ok {
		return dir
	}

	var created []*Directory // deepest first
	var existing *Directory
	for current := p; ; current = dirPath(current) {
		if dir, ok := fs.tree.nodes[current]; ok {
			existing = dir
			break
		}
		dir := newDirectory(fs.tree, current)
		fs.tree.nodes[current] = dir
		created = append(created, dir)
		if isRootDirPath(current) {
			break
		}
	}

	// link top-down so a deleted ancestor's state flows into the new nodes
	parent := existing
	for i := len(created) - 1; i >= 0; i-- {
		if parent != nil {
			created[i].setParent(parent)
		}
		parent = created[i]
	}
	return created[0]
}

func (fs *FileSystem) getOrCreateParentDirectory(p string) *Directory {
	return fs.getOrCreateDirectory(dirPath(p))
}

// nearestDirectory returns the deepest registered node at or above p without
// creating anything
func (fs *FileSystem) nearestDirectory(p string) *Directory {
	for {
		if dir, ok := fs.tree.nodes[p]; ok {
			return dir
		}
		if isRootDirPath(p) {
			return nil
		}
		p = dirPath(p)
	}
}

// removeDirAndSubDirs drops dir and its subtree from the arena, detaches it
// from its parent and removes queued operations elsewhere that reference the
// removed nodes. It returns a function that restores everything.
func (fs *FileSystem) removeDirAndSubDirs(dir *Directory) (restore func()) {
	originalParent := dir.Parent()
	removed := append([]*Directory{dir}, dir.Descendants()...)
	removedPaths := make(map[string]struct{}, len(removed))
	for _, d := range removed {
		removedPaths[d.path] = struct{}{}
		delete(fs.tree.nodes, d.path)
	}
	dir.removeParent()

	references := func(op *Operation) bool {
		for _, p := range []string{op.Dir, op.OldDir, op.NewDir} {
			if _, ok := removedPaths[p]; ok && p != "" {
				return true
			}
		}
		return false
	}
	type dropped struct {
		dir     *Directory
		ops     []*Operation
		inbound []*Operation
	}
	var drops []dropped
	for _, node := range fs.tree.nodes {
		var ops, inbound []*Operation
		for _, op := range node.operations {
			if references(op) {
				ops = append(ops, op)
			}
		}
		for _, op := range node.inboundOperations {
			if references(op) {
				inbound = append(inbound, op)
			}
		}
		if len(ops)+len(inbound) == 0 {
			continue
		}
		node.RemoveMatchingOperations(references)
		drops = append(drops, dropped{dir: node, ops: ops, inbound: inbound})
	}

	return func() {
		for _, d := range removed {
			fs.tree.nodes[d.path] = d
		}
		if originalParent != nil {
			if current, ok := originalParent.childDirs.Get(dir.path); !ok || current == dir {
				dir.setParent(originalParent)
			} else {
				dir.parent, dir.hasParent = originalParent.path, true
			}
		}
		for _, d := range drops {
			d.dir.operations = append(d.dir.operations, d.ops...)
			d.dir.inboundOperations = append(d.dir.inboundOperations, d.inbound...)
		}
	}
}

func (fs *FileSystem) markEverDeleted(p string) {
	fs.everDeleted.Set(p)
}

// wasEverDeleted reports whether p or one of its ancestors was deleted or
// moved away during the life of fs. Saving does not reset it.
func (fs *FileSystem) wasEverDeleted(p string) bool {
	for current := p; ; current = dirPath(current) {
		if fs.everDeleted.Has(current) {
			return true
		}
		if isRootDirPath(current) {
			return false
		}
	}
}

// throwIfHasExternalOperations fails with an InvalidOperation naming the
// command when dir has external operations outside tolerated
func (fs *FileSystem) throwIfHasExternalOperations(dir *Directory, command string, tolerated kindSet) error {
	ops := dir.ExternalOperations(tolerated)
	if len(ops) == 0 {
		return nil
	}
	descriptions := make([]string, len(ops))
	for i, op := range ops {
		descriptions[i] = op.String()
	}
	return &stagefs.InvalidOperationError{
		Command:    command,
		Path:       dir.path,
		Reason:     "other pending operations affect this directory; save a common ancestor first",
		Operations: descriptions,
	}
}

func (fs *FileSystem) throwIfLibFile(p, command string) error {
	if fs.overlay.Contains(p) {
		return &stagefs.InvalidOperationError{
			Command: command,
			Path:    p,
			Reason:  "library files are read-only",
		}
	}
	return nil
}

// isPathQueuedForDeletion reports whether p, a file or directory, is deleted
// in the model
func (fs *FileSystem) isPathQueuedForDeletion(p string) bool {
	if dir := fs.nearestDirectory(p); dir != nil && dir.isDeleted {
		return true
	}
	if parent, ok := fs.tree.nodes[dirPath(p)]; ok {
		return parent.IsFileQueuedForDelete(p)
	}
	return false
}

// IsPathQueuedForDeletion reports whether p was deleted in the model and the
// deletion has not been undone
func (fs *FileSystem) IsPathQueuedForDeletion(p string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.isPathQueuedForDeletion(fs.standardize(p))
}
