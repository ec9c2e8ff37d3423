package lpfs

import (
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemFs is an in-memory LpFs used by tests and embedded projects that have
// no real directory backing them.
type MemFs struct {
	mu    sync.Mutex
	root  string // prefix within the shared file map, "" for the top-level view
	files *map[string][]byte
}

// NewMemFs creates an empty, top-level in-memory filesystem.
func NewMemFs() *MemFs {
	m := make(map[string][]byte)
	return &MemFs{files: &m}
}

func (m *MemFs) key(p string) (string, error) {
	if path.IsAbs(p) || strings.Contains(p, "..") {
		return "", errEscape
	}
	return path.Join(m.root, p), nil
}

func (m *MemFs) ReadFile(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, err := m.key(p)
	if err != nil {
		return nil, err
	}
	data, ok := (*m.files)[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemFs) WriteFile(p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, err := m.key(p)
	if err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	(*m.files)[key] = cp
	return nil
}

func (m *MemFs) DeleteFile(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, err := m.key(p)
	if err != nil {
		return err
	}
	for k := range *m.files {
		if k == key || strings.HasPrefix(k, key+"/") {
			delete(*m.files, k)
		}
	}
	return nil
}

func (m *MemFs) ListDir(p string, recursive bool) ([]DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, err := m.key(p)
	if err != nil {
		return nil, err
	}
	prefix := key
	if prefix != "" {
		prefix += "/"
	}
	seen := map[string]bool{}
	var out []DirEntry
	for k := range *m.files {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rel := strings.TrimPrefix(k, prefix)
		if !recursive {
			if idx := strings.Index(rel, "/"); idx >= 0 {
				rel = rel[:idx]
				if seen[rel] {
					continue
				}
				seen[rel] = true
				out = append(out, DirEntry{Name: rel, IsDir: true})
				continue
			}
		}
		if seen[rel] {
			continue
		}
		seen[rel] = true
		out = append(out, DirEntry{Name: rel, IsDir: false})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemFs) Sub(p string) (LpFs, error) {
	key, err := m.key(p)
	if err != nil {
		return nil, err
	}
	return &MemFs{root: key, files: m.files}, nil
}
