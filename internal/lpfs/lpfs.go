// Package lpfs implements the chroot-able byte-file interface spec.md §1
// assumes as an external collaborator: a DirEntry-listing, read/write/delete
// filesystem view scoped to one directory, plus a debounced change watcher.
// Path sanitization follows the teacher's FileIODevice.sanitizePath
// (file_io.go): reject absolute paths and ".." traversal, then verify the
// resolved path is still inside the root.
package lpfs

import "io/fs"

// DirEntry describes one file or subdirectory returned by ListDir.
type DirEntry struct {
	Name  string
	IsDir bool
}

// LpFs is a chrooted byte-file view: every path is relative to the root the
// implementation was constructed with, and no operation can escape it.
type LpFs interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	DeleteFile(path string) error
	ListDir(path string, recursive bool) ([]DirEntry, error)
	// Sub returns a view chrooted to path relative to this view's root,
	// used when a node's InitContext hands a node its own subdirectory.
	Sub(path string) (LpFs, error)
}

var errEscape = fs.ErrPermission
