package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/cinesuite/internal/checksum"
)

const tmpPrefix = ".cinesuite-tmp-"

// ErrOutsideRoot is returned for paths that are absolute or climb out of
// the provider directory.
var ErrOutsideRoot = errors.New("storage: path outside root")

// FS implements Provider on a directory opened with os.OpenRoot, so no
// operation can reach outside it even through symlinks.
type FS struct {
	dir  string
	root *os.Root
}

var _ Provider = (*FS)(nil)

// NewFS opens dir as a provider root, creating it when missing.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", abs, err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", abs, err)
	}
	return &FS{dir: abs, root: root}, nil
}

// Root returns the absolute directory.
func (f *FS) Root() string { return f.dir }

// Close releases the directory handle.
func (f *FS) Close() error { return f.root.Close() }

// local maps a slash-separated provider path onto a root-relative one.
func local(p string) (string, error) {
	if p == "" || p == "." {
		return ".", nil
	}
	rel := filepath.FromSlash(p)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return filepath.Clean(rel), nil
}

// List implements Provider. Results are sorted by name; dotfiles and
// subdirectories are skipped.
func (f *FS) List(dir string) ([]FileInfo, error) {
	rel, err := local(dir)
	if err != nil {
		return nil, err
	}
	fsys := f.root.FS()
	entries, err := fs.ReadDir(fsys, filepath.ToSlash(rel))
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || !IsTransferFile(name) {
			continue
		}
		p := path.Join(filepath.ToSlash(rel), name)
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("storage: read %s: %w", p, err)
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", p, err)
		}
		out = append(out, FileInfo{
			Name:      p,
			Size:      int64(len(data)),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime().UTC(),
		})
	}
	slices.SortFunc(out, func(a, b FileInfo) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Read implements Provider.
func (f *FS) Read(p string) ([]byte, error) {
	rel, err := local(p)
	if err != nil {
		return nil, err
	}
	data, err := f.root.ReadFile(rel)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", p, err)
	}
	return data, nil
}

// Write implements Provider. Content lands in a uniquely named sibling
// first and is renamed over p once synced.
func (f *FS) Write(p string, content []byte) (err error) {
	rel, err := local(p)
	if err != nil {
		return err
	}
	if rel == "." {
		return fmt.Errorf("%w: empty path", ErrOutsideRoot)
	}
	parent := filepath.Dir(rel)
	if err := f.root.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", parent, err)
	}

	tmp := filepath.Join(parent, tmpPrefix+uuid.NewString())
	fh, err := f.root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("storage: create temp for %s: %w", p, err)
	}
	defer func() {
		if err != nil {
			_ = fh.Close()
			_ = f.root.Remove(tmp)
		}
	}()

	if _, err = fh.Write(content); err != nil {
		return fmt.Errorf("storage: write %s: %w", p, err)
	}
	if err = fh.Sync(); err != nil {
		return fmt.Errorf("storage: sync %s: %w", p, err)
	}
	if err = fh.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", p, err)
	}
	if err = f.root.Rename(tmp, rel); err != nil {
		return fmt.Errorf("storage: replace %s: %w", p, err)
	}
	return nil
}

// Delete implements Provider.
func (f *FS) Delete(p string) error {
	rel, err := local(p)
	if err != nil {
		return err
	}
	if err := f.root.Remove(rel); err != nil {
		return fmt.Errorf("storage: delete %s: %w", p, err)
	}
	return nil
}

// Move implements Provider, creating the destination directory.
func (f *FS) Move(from, to string) error {
	src, err := local(from)
	if err != nil {
		return err
	}
	dst, err := local(to)
	if err != nil {
		return err
	}
	if err := f.root.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for %s: %w", to, err)
	}
	if err := f.root.Rename(src, dst); err != nil {
		return fmt.Errorf("storage: move %s to %s: %w", from, to, err)
	}
	return nil
}

// Exists implements Provider. Directories do not count.
func (f *FS) Exists(p string) (bool, error) {
	rel, err := local(p)
	if err != nil {
		return false, err
	}
	info, err := f.root.Stat(rel)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("storage: stat %s: %w", p, err)
	}
	return info.Mode().IsRegular(), nil
}
