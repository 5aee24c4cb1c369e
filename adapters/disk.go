package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/internal/util"
	"github.com/charlievieth/fastwalk"
	"golang.org/x/text/cases"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// DiskStoreOptions configures a [DiskStore]
type DiskStoreOptions struct {
	// CaseSensitive overrides the platform default (insensitive on darwin and
	// windows)
	CaseSensitive    *bool
	CurrentDirectory string // Default "/"
}

// DiskStore is a [stagefs.BackingStore] rooted at a host directory. The
// virtual path "/" maps onto the root.
type DiskStore struct {
	root          string
	caseSensitive bool
	cwd           string
}

// NewDiskStore creates a store over root, which must be an existing
// directory
func NewDiskStore(root string, opts DiskStoreOptions) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("store root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root %s is not a directory", abs)
	}

	cwd := opts.CurrentDirectory
	if cwd == "" {
		cwd = "/"
	}
	d := &DiskStore{
		root:          abs,
		caseSensitive: util.ValueOrDefault(opts.CaseSensitive, defaultCaseSensitive()),
		cwd:           path.Clean(cwd),
	}
	logger := util.GetLogger("DiskStore")
	logger.Debug().
		Str("root", d.root).
		Bool("caseSensitive", d.caseSensitive).
		Msg("Opened disk store")
	return d, nil
}

func defaultCaseSensitive() bool {
	return runtime.GOOS != "darwin" && runtime.GOOS != "windows"
}

// hostPath maps a virtual path onto the host
func (d *DiskStore) hostPath(p string) string {
	return filepath.Join(d.root, filepath.FromSlash(path.Clean("/"+p)))
}

// virtualPath maps a host path beneath root back to a virtual path
func (d *DiskStore) virtualPath(host string) (string, bool) {
	rel, err := filepath.Rel(d.root, host)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path.Clean("/" + filepath.ToSlash(rel)), true
}

func (d *DiskStore) FileExists(_ context.Context, p string) bool {
	info, err := os.Stat(d.hostPath(p))
	return err == nil && !info.IsDir()
}

func (d *DiskStore) DirectoryExists(_ context.Context, p string) bool {
	info, err := os.Stat(d.hostPath(p))
	return err == nil && info.IsDir()
}

func (d *DiskStore) ReadFile(_ context.Context, p string) (string, error) {
	data, err := os.ReadFile(d.hostPath(p))
	if errors.Is(err, fs.ErrNotExist) {
		return "", &stagefs.FileNotFoundError{Path: p}
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *DiskStore) ReadDir(_ context.Context, p string) ([]stagefs.DirEntry, error) {
	host := d.hostPath(p)
	dirEntries, err := os.ReadDir(host)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &stagefs.DirectoryNotFoundError{Path: p}
	}
	if err != nil {
		return nil, err
	}

	entries := make([]stagefs.DirEntry, 0, len(dirEntries))
	for _, e := range dirEntries {
		entry := stagefs.DirEntry{
			Path:        path.Join(p, e.Name()),
			IsFile:      e.Type().IsRegular(),
			IsDirectory: e.IsDir(),
			IsSymlink:   e.Type()&fs.ModeSymlink != 0,
		}
		if entry.IsSymlink {
			// report what the link points at
			if info, err := os.Stat(filepath.Join(host, e.Name())); err == nil {
				entry.IsFile = info.Mode().IsRegular()
				entry.IsDirectory = info.IsDir()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (d *DiskStore) WriteFile(_ context.Context, p, text string) error {
	err := os.WriteFile(d.hostPath(p), []byte(text), filePerms)
	if errors.Is(err, fs.ErrNotExist) {
		return &stagefs.DirectoryNotFoundError{Path: path.Dir(p)}
	}
	return err
}

func (d *DiskStore) Mkdir(_ context.Context, p string) error {
	return os.MkdirAll(d.hostPath(p), dirPerms)
}

func (d *DiskStore) Delete(_ context.Context, p string) error {
	host := d.hostPath(p)
	if _, err := os.Lstat(host); errors.Is(err, fs.ErrNotExist) {
		return &stagefs.FileNotFoundError{Path: p}
	}
	return os.RemoveAll(host)
}

// Move renames src to dest, merging directory contents file by file when
// dest already exists
func (d *DiskStore) Move(ctx context.Context, src, dest string) error {
	srcHost, destHost := d.hostPath(src), d.hostPath(dest)
	srcInfo, err := os.Stat(srcHost)
	if errors.Is(err, fs.ErrNotExist) {
		return &stagefs.DirectoryNotFoundError{Path: src}
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destHost), dirPerms); err != nil {
		return err
	}

	destInfo, err := os.Stat(destHost)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !srcInfo.IsDir() && !destInfo.IsDir()) {
		return os.Rename(srcHost, destHost)
	}
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() || !destInfo.IsDir() {
		return fmt.Errorf("move %s to %s: cannot replace a directory with a file or vice versa", src, dest)
	}

	tree, err := d.walk(ctx, srcHost)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	for _, dir := range tree.dirs {
		if err := os.MkdirAll(filepath.Join(destHost, dir), dirPerms); err != nil {
			return err
		}
	}
	for _, file := range tree.files {
		if err := os.Rename(filepath.Join(srcHost, file), filepath.Join(destHost, file)); err != nil {
			return err
		}
	}
	return os.RemoveAll(srcHost)
}

// Copy copies src into dest recursively, overwriting files that exist in
// both
func (d *DiskStore) Copy(ctx context.Context, src, dest string) error {
	srcHost, destHost := d.hostPath(src), d.hostPath(dest)
	srcInfo, err := os.Stat(srcHost)
	if errors.Is(err, fs.ErrNotExist) {
		return &stagefs.DirectoryNotFoundError{Path: src}
	}
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		if err := os.MkdirAll(filepath.Dir(destHost), dirPerms); err != nil {
			return err
		}
		return copyFile(srcHost, destHost, srcInfo.Mode().Perm())
	}

	tree, err := d.walk(ctx, srcHost)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := os.MkdirAll(destHost, dirPerms); err != nil {
		return err
	}
	for _, dir := range tree.dirs {
		if err := os.MkdirAll(filepath.Join(destHost, dir), dirPerms); err != nil {
			return err
		}
	}
	for _, file := range tree.files {
		if err := copyFile(filepath.Join(srcHost, file), filepath.Join(destHost, file), filePerms); err != nil {
			return err
		}
	}
	return nil
}

type walkResult struct {
	dirs  []string // relative to the walked root, parents first
	files []string
}

// walk lists everything beneath root. fastwalk visits entries concurrently,
// so results are gathered under a lock and sorted afterwards.
func (d *DiskStore) walk(ctx context.Context, root string) (walkResult, error) {
	var (
		mu  sync.Mutex
		res walkResult
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, e fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if e.IsDir() {
			res.dirs = append(res.dirs, rel)
		} else {
			res.files = append(res.files, rel)
		}
		return nil
	})
	slices.Sort(res.dirs)
	slices.Sort(res.files)
	return res, err
}

func copyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Glob expands the include patterns on the host and filters out exclusions.
// Only files are returned.
func (d *DiskStore) Glob(_ context.Context, patterns []string) ([]string, error) {
	var fold func(string) string
	if !d.caseSensitive {
		fold = cases.Fold().String
	}
	g, err := parseGlobPatterns(patterns, d.cwd, fold)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var matches []string
	for _, pattern := range g.include {
		hostMatches, err := doublestar.FilepathGlob(d.hostPath(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, hm := range hostMatches {
			vp, ok := d.virtualPath(hm)
			if !ok || g.excluded(vp) {
				continue
			}
			if _, dup := seen[vp]; dup {
				continue
			}
			seen[vp] = struct{}{}
			matches = append(matches, vp)
		}
	}
	slices.Sort(matches)
	return matches, nil
}

func (d *DiskStore) IsCaseSensitive() bool {
	return d.caseSensitive
}

func (d *DiskStore) CurrentDirectory() string {
	return d.cwd
}

// Realpath resolves symlinks on the host. Paths that cannot be resolved or
// that resolve outside the root are returned unchanged.
func (d *DiskStore) Realpath(p string) string {
	resolved, err := filepath.EvalSymlinks(d.hostPath(p))
	if err != nil {
		return p
	}
	root, err := filepath.EvalSymlinks(d.root)
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return path.Clean("/" + filepath.ToSlash(rel))
}

var _ stagefs.BackingStore = (*DiskStore)(nil)
