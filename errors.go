package stagefs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrInvalidOperation is matched by every [*InvalidOperationError]
var ErrInvalidOperation = errors.New("invalid operation")

// InvalidOperationError is returned when a mutation targets a library file,
// conflicts with pending operations, or a read targets a directory that can
// no longer be trusted.
type InvalidOperationError struct {
	Command string
	Path    string
	Reason  string
	// Operations describes the conflicting operations, if any
	Operations []string
}

func (e *InvalidOperationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot %s %s: %s", e.Command, e.Path, e.Reason)
	for _, op := range e.Operations {
		b.WriteString("\n  * ")
		b.WriteString(op)
	}
	return b.String()
}

func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

// FileNotFoundError is returned by reads and deletes of a missing file
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return "file not found: " + e.Path
}

func (e *FileNotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// DirectoryNotFoundError is returned by reads and deletes of a missing
// directory
type DirectoryNotFoundError struct {
	Path string
}

func (e *DirectoryNotFoundError) Error() string {
	return "directory not found: " + e.Path
}

func (e *DirectoryNotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// IsNotFound reports whether err signals a missing file or directory
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
