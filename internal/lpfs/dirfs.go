package lpfs

import (
	"os"
	"path/filepath"
	"strings"
)

// DirFs is an LpFs backed by a real OS directory.
type DirFs struct {
	root string
}

// NewDirFs chrots a new DirFs to root, which must already exist.
func NewDirFs(root string) (*DirFs, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &DirFs{root: abs}, nil
}

// sanitize rejects absolute paths and ".." traversal, mirroring
// file_io.go's FileIODevice.sanitizePath.
func (d *DirFs) sanitize(p string) (string, error) {
	if filepath.IsAbs(p) || strings.Contains(p, "..") {
		return "", errEscape
	}
	full := filepath.Join(d.root, p)
	rel, err := filepath.Rel(d.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errEscape
	}
	return full, nil
}

func (d *DirFs) ReadFile(path string) ([]byte, error) {
	full, err := d.sanitize(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (d *DirFs) WriteFile(path string, data []byte) error {
	full, err := d.sanitize(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (d *DirFs) DeleteFile(path string) error {
	full, err := d.sanitize(path)
	if err != nil {
		return err
	}
	return os.RemoveAll(full)
}

func (d *DirFs) ListDir(path string, recursive bool) ([]DirEntry, error) {
	full, err := d.sanitize(path)
	if err != nil {
		return nil, err
	}
	if !recursive {
		entries, err := os.ReadDir(full)
		if err != nil {
			return nil, err
		}
		out := make([]DirEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, DirEntry{Name: e.Name(), IsDir: e.IsDir()})
		}
		return out, nil
	}
	var out []DirEntry
	err = filepath.WalkDir(full, func(p string, e os.DirEntry, err error) error {
		if err != nil || p == full {
			return err
		}
		rel, relErr := filepath.Rel(full, p)
		if relErr != nil {
			return relErr
		}
		out = append(out, DirEntry{Name: rel, IsDir: e.IsDir()})
		return nil
	})
	return out, err
}

func (d *DirFs) Sub(path string) (LpFs, error) {
	full, err := d.sanitize(path)
	if err != nil {
		return nil, err
	}
	return &DirFs{root: full}, nil
}
