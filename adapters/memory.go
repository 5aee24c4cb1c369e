package adapters

import (
	"cmp"
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/internal/util"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/text/cases"
)

// MemoryStoreOptions configures a [MemoryStore]
type MemoryStoreOptions struct {
	CaseSensitive    bool
	CurrentDirectory string // Default "/"
}

type memFile struct {
	path string // path as last written
	text string
}

// MemoryStore is a [stagefs.BackingStore] held entirely in memory. Reads are
// lock-free; mutations are serialized.
type MemoryStore struct {
	caseSensitive bool
	cwd           string
	files         *xsync.Map[string, memFile] // key -> file
	dirs          *xsync.Map[string, string]  // key -> path as created
	mu            sync.Mutex                  // serializes mutations spanning several keys
}

func NewMemoryStore(opts MemoryStoreOptions) *MemoryStore {
	cwd := opts.CurrentDirectory
	if cwd == "" {
		cwd = "/"
	}
	m := &MemoryStore{
		caseSensitive: opts.CaseSensitive,
		cwd:           path.Clean(cwd),
		files:         xsync.NewMap[string, memFile](),
		dirs:          xsync.NewMap[string, string](),
	}
	m.dirs.Store("/", "/")
	return m
}

// key is the map key for p: p itself, or its case folding on a
// case-insensitive store
func (m *MemoryStore) key(p string) string {
	p = path.Clean(p)
	if m.caseSensitive {
		return p
	}
	return cases.Fold().String(p)
}

func (m *MemoryStore) FileExists(_ context.Context, p string) bool {
	_, ok := m.files.Load(m.key(p))
	return ok
}

func (m *MemoryStore) DirectoryExists(_ context.Context, p string) bool {
	_, ok := m.dirs.Load(m.key(p))
	return ok
}

func (m *MemoryStore) ReadFile(_ context.Context, p string) (string, error) {
	f, ok := m.files.Load(m.key(p))
	if !ok {
		return "", &stagefs.FileNotFoundError{Path: p}
	}
	return f.text, nil
}

func (m *MemoryStore) ReadDir(_ context.Context, p string) ([]stagefs.DirEntry, error) {
	k := m.key(p)
	if _, ok := m.dirs.Load(k); !ok {
		return nil, &stagefs.DirectoryNotFoundError{Path: p}
	}

	var entries []stagefs.DirEntry
	m.dirs.Range(func(dk, dp string) bool {
		if dk != k && path.Dir(dk) == k {
			entries = append(entries, stagefs.DirEntry{Path: dp, IsDirectory: true})
		}
		return true
	})
	m.files.Range(func(fk string, f memFile) bool {
		if path.Dir(fk) == k {
			entries = append(entries, stagefs.DirEntry{Path: f.path, IsFile: true})
		}
		return true
	})
	slices.SortFunc(entries, func(a, b stagefs.DirEntry) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return entries, nil
}

func (m *MemoryStore) WriteFile(ctx context.Context, p, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeFile(path.Clean(p), text)
}

func (m *MemoryStore) writeFile(p, text string) error {
	k := m.key(p)
	if _, ok := m.dirs.Load(k); ok {
		return fmt.Errorf("write %s: is a directory", p)
	}
	if _, ok := m.dirs.Load(path.Dir(k)); !ok {
		return &stagefs.DirectoryNotFoundError{Path: path.Dir(p)}
	}
	m.files.Store(k, memFile{path: p, text: text})
	return nil
}

func (m *MemoryStore) Mkdir(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mkdirAll(path.Clean(p))
}

func (m *MemoryStore) mkdirAll(p string) error {
	current := "/"
	for _, part := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		if part == "" {
			continue
		}
		current = path.Join(current, part)
		k := m.key(current)
		if _, ok := m.files.Load(k); ok {
			return fmt.Errorf("mkdir %s: %s is a file", p, current)
		}
		m.dirs.LoadOrStore(k, current)
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(p)
	if _, ok := m.files.LoadAndDelete(k); ok {
		return nil
	}
	if _, ok := m.dirs.Load(k); !ok {
		return &stagefs.FileNotFoundError{Path: p}
	}
	dirs, files := m.subtree(k)
	for _, d := range dirs {
		if d != "/" {
			m.dirs.Delete(d)
		}
	}
	for _, f := range files {
		m.files.Delete(f)
	}
	logger := util.GetLogger("MemoryStore.Delete")
	logger.Trace().
		Str("path", p).Int("dirs", len(dirs)).Int("files", len(files)).
		Msg("Deleted directory")
	return nil
}

// subtree returns the keys of the directories and files at or beneath the
// directory key k
func (m *MemoryStore) subtree(k string) (dirs, files []string) {
	inside := func(other string) bool {
		return other == k || k == "/" || strings.HasPrefix(other, k+"/")
	}
	m.dirs.Range(func(dk, _ string) bool {
		if inside(dk) {
			dirs = append(dirs, dk)
		}
		return true
	})
	m.files.Range(func(fk string, _ memFile) bool {
		if inside(fk) {
			files = append(files, fk)
		}
		return true
	})
	// parents before children
	slices.Sort(dirs)
	return dirs, files
}

func (m *MemoryStore) Move(ctx context.Context, src, dest string) error {
	return m.transfer(ctx, src, dest, true)
}

func (m *MemoryStore) Copy(ctx context.Context, src, dest string) error {
	return m.transfer(ctx, src, dest, false)
}

func (m *MemoryStore) transfer(ctx context.Context, src, dest string, removeSource bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	src, dest = path.Clean(src), path.Clean(dest)
	srcKey, destKey := m.key(src), m.key(dest)
	if srcKey == destKey || strings.HasPrefix(destKey, srcKey+"/") {
		return fmt.Errorf("cannot transfer %s into itself (%s)", src, dest)
	}
	if err := m.mkdirAll(path.Dir(dest)); err != nil {
		return err
	}

	if f, ok := m.files.Load(srcKey); ok {
		if err := m.writeFile(dest, f.text); err != nil {
			return err
		}
		if removeSource {
			m.files.Delete(srcKey)
		}
		return nil
	}
	if _, ok := m.dirs.Load(srcKey); !ok {
		return &stagefs.DirectoryNotFoundError{Path: src}
	}

	depth := componentCount(srcKey)
	dirs, files := m.subtree(srcKey)
	for _, dk := range dirs {
		dp, _ := m.dirs.Load(dk)
		if err := m.mkdirAll(path.Join(dest, relativeTo(dp, depth))); err != nil {
			return err
		}
	}
	for _, fk := range files {
		f, _ := m.files.Load(fk)
		if err := m.writeFile(path.Join(dest, relativeTo(f.path, depth)), f.text); err != nil {
			return err
		}
	}
	if removeSource {
		for _, fk := range files {
			m.files.Delete(fk)
		}
		for _, dk := range dirs {
			m.dirs.Delete(dk)
		}
	}
	return nil
}

// Glob matches files only. Case-insensitive stores match case-insensitively.
func (m *MemoryStore) Glob(_ context.Context, patterns []string) ([]string, error) {
	var fold func(string) string
	if !m.caseSensitive {
		fold = cases.Fold().String
	}
	g, err := parseGlobPatterns(patterns, m.cwd, fold)
	if err != nil {
		return nil, err
	}
	var matches []string
	m.files.Range(func(_ string, f memFile) bool {
		if g.match(f.path) {
			matches = append(matches, f.path)
		}
		return true
	})
	slices.Sort(matches)
	return matches, nil
}

func (m *MemoryStore) IsCaseSensitive() bool {
	return m.caseSensitive
}

func (m *MemoryStore) CurrentDirectory() string {
	return m.cwd
}

// Realpath returns p cleaned; the memory store has no links
func (m *MemoryStore) Realpath(p string) string {
	return path.Clean(p)
}

var _ stagefs.BackingStore = (*MemoryStore)(nil)

func componentCount(p string) int {
	if p == "/" {
		return 0
	}
	return strings.Count(p, "/")
}

// relativeTo drops the first depth components of the absolute path p
func relativeTo(p string, depth int) string {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if p == "/" {
		parts = nil
	}
	if depth >= len(parts) {
		return ""
	}
	return strings.Join(parts[depth:], "/")
}
