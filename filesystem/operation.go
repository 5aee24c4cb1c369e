package filesystem

import (
	"fmt"

	"github.com/google/uuid"
)

// OperationKind is the closed set of deferred mutations
type OperationKind int

const (
	OpMkdir OperationKind = iota
	OpDeleteFile
	OpDeleteDir
	OpCopy
	OpMove
)

func (k OperationKind) String() string {
	switch k {
	case OpMkdir:
		return "mkdir"
	case OpDeleteFile:
		return "deleteFile"
	case OpDeleteDir:
		return "deleteDir"
	case OpCopy:
		return "copy"
	case OpMove:
		return "move"
	default:
		return fmt.Sprintf("OperationKind(%d)", int(k))
	}
}

// Operation is one queued mutation. Which path fields are set depends on Kind:
//
//	mkdir, deleteDir  Dir
//	deleteFile        FilePath
//	copy, move        OldDir, NewDir
//
// Operations are compared by identity; two separately queued operations on the
// same path are distinct.
type Operation struct {
	Kind     OperationKind
	Index    uint64 // replay order within a save
	ID       uuid.UUID
	Dir      string
	FilePath string
	OldDir   string
	NewDir   string

	owner string // path of the directory whose queue holds this operation
}

func (op *Operation) String() string {
	switch op.Kind {
	case OpDeleteFile:
		return fmt.Sprintf("%s %s (#%d %s)", op.Kind, op.FilePath, op.Index, op.ID)
	case OpCopy, OpMove:
		return fmt.Sprintf("%s %s -> %s (#%d %s)", op.Kind, op.OldDir, op.NewDir, op.Index, op.ID)
	default:
		return fmt.Sprintf("%s %s (#%d %s)", op.Kind, op.Dir, op.Index, op.ID)
	}
}

// isMoveOrCopy reports whether the operation relocates a directory subtree
func (op *Operation) isMoveOrCopy() bool {
	return op.Kind == OpMove || op.Kind == OpCopy
}

// kindSet is the per-call set of operation kinds a conflict check tolerates
type kindSet map[OperationKind]struct{}

func tolerate(kinds ...OperationKind) kindSet {
	s := make(kindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

func (s kindSet) has(k OperationKind) bool {
	_, ok := s[k]
	return ok
}
