package model

import (
	"path"
	"strings"
)

// NodeSpecifier is a string reference to another node: either absolute
// ("/src/foo.texture") or relative ("../foo.output"), resolved against the
// referring node's parent directory (spec.md §6).
type NodeSpecifier string

// Resolve turns spec into an absolute LpPath, resolving relative specifiers
// against referrerParent (the directory containing the referring node).
func (spec NodeSpecifier) Resolve(referrerParent LpPath) LpPath {
	s := string(spec)
	if strings.HasPrefix(s, "/") {
		return LpPath(path.Clean(s))
	}
	return LpPath(path.Clean(path.Join(string(referrerParent), s)))
}

// ParentOf returns the directory portion of an LpPath.
func ParentOf(p LpPath) LpPath {
	return LpPath(path.Dir(string(p)))
}

// SuffixOf returns the node-kind suffix of a node path, e.g. "shader" for
// "/src/foo.shader", and whether the path has a recognized suffix at all.
func SuffixOf(p LpPath) (string, bool) {
	base := path.Base(string(p))
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return "", false
	}
	return base[idx+1:], true
}
