package vfs

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// Resolver turns client-supplied relative paths into absolute locations
// proven to sit inside the volume root. It is the sole trust boundary of
// the engine: no other component may join the root with a raw client
// string.
type Resolver struct {
	root string // absolute and symlink-free, no trailing separator
}

// NewResolver canonicalizes root and pins it for the process lifetime.
// The root directory must exist.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, wrapOS("resolve", root, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, wrapOS("resolve", root, err)
	}
	return &Resolver{root: filepath.Clean(real)}, nil
}

// Root returns the canonical volume root.
func (r *Resolver) Root() string { return r.root }

// Resolve validates an existing target. The empty string and "/" denote
// the root itself. Symlinks are followed before the containment check so
// a link pointing outside the sandbox is rejected, not traversed.
func (r *Resolver) Resolve(rel string) (string, error) {
	joined, err := r.join("resolve", rel)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", opError("resolve", rel, ErrNotFound, nil)
		}
		return "", wrapOS("resolve", rel, err)
	}
	if !r.contains(real) {
		return "", opError("resolve", rel, ErrTraversal, nil)
	}
	return real, nil
}

// ResolveForCreate validates a target whose final component may not exist
// yet. The parent directory must exist and pass containment; the target is
// then synthesized from the validated parent plus the final segment rather
// than resolved directly.
func (r *Resolver) ResolveForCreate(rel string) (string, error) {
	joined, err := r.join("resolve", rel)
	if err != nil {
		return "", err
	}
	if joined == r.root {
		return "", opError("resolve", rel, ErrIsDir, nil)
	}

	// Fast path: the target already exists.
	if real, evalErr := filepath.EvalSymlinks(joined); evalErr == nil {
		if !r.contains(real) {
			return "", opError("resolve", rel, ErrTraversal, nil)
		}
		return real, nil
	}

	realParent, err := filepath.EvalSymlinks(filepath.Dir(joined))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", opError("resolve", rel, ErrNotFound, nil)
		}
		return "", wrapOS("resolve", rel, err)
	}
	if !r.contains(realParent) {
		return "", opError("resolve", rel, ErrTraversal, nil)
	}
	return filepath.Join(realParent, filepath.Base(joined)), nil
}

// ResolveAncestor validates a target that may be several missing
// components deep, such as mkdir -p or a write that creates parents. It
// walks up to the nearest existing ancestor, containment-checks its real
// location, and rebuilds the target from there.
func (r *Resolver) ResolveAncestor(rel string) (string, error) {
	joined, err := r.join("resolve", rel)
	if err != nil {
		return "", err
	}

	ancestor := joined
	var missing []string
	for {
		real, evalErr := filepath.EvalSymlinks(ancestor)
		if evalErr == nil {
			if !r.contains(real) {
				return "", opError("resolve", rel, ErrTraversal, nil)
			}
			for i := len(missing) - 1; i >= 0; i-- {
				real = filepath.Join(real, missing[i])
			}
			return real, nil
		}
		if !errors.Is(evalErr, fs.ErrNotExist) {
			return "", wrapOS("resolve", rel, evalErr)
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return "", opError("resolve", rel, ErrTraversal, nil)
		}
		missing = append(missing, filepath.Base(ancestor))
		ancestor = parent
	}
}

// Rel converts a resolved absolute path back to its root-relative form for
// display. The root itself maps to "".
func (r *Resolver) Rel(abs string) string {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == "." {
		return ""
	}
	return rel
}

// join normalizes the client path and anchors it at the root. A leading
// separator is root-relative, not absolute-escaping. The textual
// containment check here is a cheap pre-filter only; the real defense is
// the post-symlink check in the callers.
func (r *Resolver) join(op, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	rel = strings.TrimPrefix(rel, "/")
	joined := filepath.Join(r.root, rel)
	if !r.contains(joined) {
		return "", opError(op, rel, ErrTraversal, nil)
	}
	return joined, nil
}

func (r *Resolver) contains(abs string) bool {
	return abs == r.root || strings.HasPrefix(abs, r.root+string(filepath.Separator))
}
