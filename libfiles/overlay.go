// Package libfiles exposes the built-in library files as an immutable,
// read-only overlay that exists regardless of the backing store's contents.
package libfiles

import (
	"embed"
	"io/fs"
	"maps"
	"path"
	"slices"
	"sync"

	"github.com/brettbedarf/stagefs/internal/util"
)

//go:embed lib/*.d.ts
var embedded embed.FS

var (
	loadOnce sync.Once
	files    map[string]string // file name -> text
)

// Files returns the built-in library files keyed by file name. They are read
// once on first use and never change afterwards; callers must not modify the
// returned map.
func Files() map[string]string {
	loadOnce.Do(func() {
		files = load(embedded, "lib")
	})
	return files
}

func load(fsys fs.FS, dir string) map[string]string {
	logger := util.GetLogger("libfiles.load")

	out := make(map[string]string)
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("Failed to list library files")
		return out
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			logger.Error().Err(err).Str("file", e.Name()).Msg("Failed to read library file")
			continue
		}
		out[e.Name()] = string(data)
	}
	logger.Debug().Int("count", len(out)).Msg("Loaded library files")
	return out
}

// Overlay binds the library files to a folder. A nil *Overlay is valid and
// contains nothing.
type Overlay struct {
	folder string
	files  map[string]string // absolute path -> text
	paths  []string          // sorted keys of files
}

// NewOverlay places every library file under folder. canonical maps each
// resulting path to its standardized form; pass nil to keep paths as is.
func NewOverlay(folder string, canonical func(string) string) *Overlay {
	if canonical == nil {
		canonical = func(p string) string { return p }
	}
	folder = canonical(path.Clean(folder))
	o := &Overlay{folder: folder, files: make(map[string]string, len(Files()))}
	for name, text := range Files() {
		o.files[canonical(path.Join(folder, name))] = text
	}
	o.paths = slices.Sorted(maps.Keys(o.files))
	return o
}

func (o *Overlay) Folder() string {
	if o == nil {
		return ""
	}
	return o.folder
}

// Contains reports whether p is one of the overlay's files
func (o *Overlay) Contains(p string) bool {
	if o == nil {
		return false
	}
	_, ok := o.files[p]
	return ok
}

func (o *Overlay) Read(p string) (string, bool) {
	if o == nil {
		return "", false
	}
	text, ok := o.files[p]
	return text, ok
}

// Paths returns every overlay file path in sorted order
func (o *Overlay) Paths() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.paths)
}

// FilesIn returns the overlay files that are direct children of dir
func (o *Overlay) FilesIn(dir string) []string {
	if o == nil || dir != o.folder {
		return nil
	}
	return slices.Clone(o.paths)
}
