package filesystem

import (
	"cmp"
	"slices"

	"github.com/brettbedarf/stagefs"
)

// dirTree is the arena owning every Directory node by path. Parent links are
// stored as path keys into nodes rather than pointers.
type dirTree struct {
	nodes   map[string]*Directory
	compare func(a, b string) int
}

func newDirTree(compare func(a, b string) int) *dirTree {
	return &dirTree{nodes: make(map[string]*Directory), compare: compare}
}

// Directory is one node of the in-memory directory model along with the
// operations queued against it.
type Directory struct {
	path      string // immutable
	parent    string // path of the parent; "" when detached or root
	hasParent bool
	tree      *dirTree
	childDirs *SortedIndex[string, *Directory]

	operations        []*Operation
	inboundOperations []*Operation // copy/move operations targeting this directory

	isDeleted      bool
	wasEverDeleted bool
}

func newDirectory(tree *dirTree, p string) *Directory {
	return &Directory{
		path: p,
		tree: tree,
		childDirs: NewSortedIndex(func(d *Directory) string {
			return d.path
		}, tree.compare),
	}
}

// Path returns the node's immutable standardized path
func (d *Directory) Path() string {
	return d.path
}

// Parent returns the parent node, or nil for a root or detached node
func (d *Directory) Parent() *Directory {
	if !d.hasParent {
		return nil
	}
	return d.tree.nodes[d.parent]
}

func (d *Directory) IsRoot() bool {
	return isRootDirPath(d.path)
}

// IsDeleted is true while a delete of this node (or an ancestor) is queued or
// was applied and has not been undone by a later mkdir
func (d *Directory) IsDeleted() bool {
	return d.isDeleted
}

// WasEverDeleted reports whether this node or any ancestor has been deleted
// or moved away at some point. Listings through such a node cannot be
// trusted.
func (d *Directory) WasEverDeleted() bool {
	if d.wasEverDeleted {
		return true
	}
	for _, a := range d.Ancestors() {
		if a.wasEverDeleted {
			return true
		}
	}
	return false
}

func (d *Directory) setIsDeleted(isDeleted bool) {
	if !isDeleted {
		// recreating a directory recreates every ancestor
		d.isDeleted = false
		for p := d.Parent(); p != nil; p = p.Parent() {
			p.isDeleted = false
		}
		return
	}
	if d.isDeleted {
		return
	}
	d.isDeleted = true
	d.wasEverDeleted = true
	for child := range d.childDirs.All() {
		child.setIsDeleted(true)
	}
}

// setParent links d beneath parent. A node attached under a deleted parent
// starts out deleted as well.
func (d *Directory) setParent(parent *Directory) {
	d.parent = parent.path
	d.hasParent = true
	parent.childDirs.Set(d)
	if parent.isDeleted && !d.isDeleted {
		d.isDeleted = true
	}
}

// removeParent detaches d from its parent's child index. On case-insensitive
// trees the slot may already hold a recreated node under another casing;
// that node stays linked.
func (d *Directory) removeParent() {
	if parent := d.Parent(); parent != nil {
		if current, ok := parent.childDirs.Get(d.path); ok && current == d {
			parent.childDirs.RemoveByValue(d)
		}
	}
	d.parent = ""
	d.hasParent = false
}

// Ancestors returns the chain of parents, nearest first
func (d *Directory) Ancestors() []*Directory {
	var ancestors []*Directory
	for p := d.Parent(); p != nil; p = p.Parent() {
		ancestors = append(ancestors, p)
	}
	return ancestors
}

// Descendants returns every nested node known to the model, whether or not it
// exists in the backing store
func (d *Directory) Descendants() []*Directory {
	var descendants []*Directory
	for child := range d.childDirs.All() {
		descendants = append(descendants, child)
		descendants = append(descendants, child.Descendants()...)
	}
	return descendants
}

// IsDescendant reports whether d lies strictly beneath other
func (d *Directory) IsDescendant(other *Directory) bool {
	return pathStartsWith(d.path, other.path)
}

func (d *Directory) IsDescendantOrEqual(other *Directory) bool {
	return d == other || d.IsDescendant(other)
}

// childEntries lists the live child directories
func (d *Directory) childEntries() []stagefs.DirEntry {
	entries := make([]stagefs.DirEntry, 0, d.childDirs.Len())
	for child := range d.childDirs.All() {
		if child.isDeleted {
			continue
		}
		entries = append(entries, stagefs.DirEntry{Path: child.path, IsDirectory: true})
	}
	return entries
}

// ExternalOperations returns pending operations that affect this directory
// but would not be executed by saving it:
//   - move, copy and deleteDir operations queued on an ancestor that touch
//     this directory's subtree;
//   - move and copy operations queued on, or inbound to, this directory or a
//     descendant whose source or destination lies outside this directory.
//
// Operations whose kind is in tolerated are skipped. Any non-empty result is
// a conflict for the caller.
func (d *Directory) ExternalOperations(tolerated kindSet) []*Operation {
	seen := make(map[*Operation]struct{})
	var external []*Operation
	add := func(op *Operation) {
		if _, ok := seen[op]; ok {
			return
		}
		seen[op] = struct{}{}
		external = append(external, op)
	}

	for _, ancestor := range d.Ancestors() {
		for _, op := range ancestor.operations {
			if tolerated.has(op.Kind) {
				continue
			}
			if d.isAffectedByAncestorOperation(op) {
				add(op)
			}
		}
	}

	for _, dir := range append([]*Directory{d}, d.Descendants()...) {
		for _, ops := range [][]*Operation{dir.operations, dir.inboundOperations} {
			for _, op := range ops {
				if !op.isMoveOrCopy() || tolerated.has(op.Kind) {
					continue
				}
				if !d.isInternalOperation(op) {
					add(op)
				}
			}
		}
	}

	slices.SortFunc(external, func(a, b *Operation) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return external
}

func (d *Directory) isAffectedByAncestorOperation(op *Operation) bool {
	related := func(other string) bool {
		return isSameOrInside(d.path, other) || isSameOrInside(other, d.path)
	}
	switch op.Kind {
	case OpMove, OpCopy:
		return related(op.OldDir) || related(op.NewDir)
	case OpDeleteDir:
		return isSameOrInside(d.path, op.Dir)
	default:
		return false
	}
}

// isInternalOperation reports whether both ends of a move/copy lie inside d
func (d *Directory) isInternalOperation(op *Operation) bool {
	return isSameOrInside(op.OldDir, d.path) && isSameOrInside(op.NewDir, d.path)
}

// IsFileQueuedForDelete reports whether a delete of filePath, a direct child
// of d, is pending
func (d *Directory) IsFileQueuedForDelete(filePath string) bool {
	return slices.ContainsFunc(d.operations, func(op *Operation) bool {
		return op.Kind == OpDeleteFile && op.FilePath == filePath
	})
}

// DequeueFileDelete drops pending deletes of filePath
func (d *Directory) DequeueFileDelete(filePath string) bool {
	return d.RemoveMatchingOperations(func(op *Operation) bool {
		return op.Kind == OpDeleteFile && op.FilePath == filePath
	}) > 0
}

// DequeueDirDelete drops pending deletes of the child directory dirPath
func (d *Directory) DequeueDirDelete(dirPath string) bool {
	return d.RemoveMatchingOperations(func(op *Operation) bool {
		return op.Kind == OpDeleteDir && op.Dir == dirPath
	}) > 0
}

// RemoveMatchingOperations removes matching queued and inbound operations and
// returns how many were removed
func (d *Directory) RemoveMatchingOperations(match func(op *Operation) bool) int {
	before := len(d.operations) + len(d.inboundOperations)
	d.operations = slices.DeleteFunc(d.operations, match)
	d.inboundOperations = slices.DeleteFunc(d.inboundOperations, match)
	return before - len(d.operations) - len(d.inboundOperations)
}

// hasOperations reports whether anything is queued in d's subtree
func (d *Directory) hasOperations() bool {
	for _, dir := range append([]*Directory{d}, d.Descendants()...) {
		if len(dir.operations) > 0 {
			return true
		}
	}
	return false
}

func (d *Directory) enqueue(op *Operation) {
	op.owner = d.path
	d.operations = append(d.operations, op)
}

func (d *Directory) addInbound(op *Operation) {
	d.inboundOperations = append(d.inboundOperations, op)
}

// drainOperation removes a single operation by identity from both lists
func (d *Directory) drainOperation(op *Operation) {
	d.RemoveMatchingOperations(func(o *Operation) bool { return o == op })
}
