package vfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// Glob walks the tree under rel and returns entries whose root-relative
// path matches pattern. Patterns use doublestar syntax, so "**/*.go"
// works. Symlinks are never followed and entries that vanish mid-walk are
// skipped.
func (o *Ops) Glob(rel, pattern string) ([]FileEntry, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, opError("glob", rel, ErrIO, doublestar.ErrBadPattern)
	}

	base, err := o.resolve("glob", rel)
	if err != nil {
		return nil, err
	}
	if info, statErr := os.Stat(base); statErr != nil {
		return nil, wrapOS("glob", rel, statErr)
	} else if !info.IsDir() {
		return nil, opError("glob", rel, ErrNotDir, nil)
	}

	var (
		mu      sync.Mutex
		matched []FileEntry
	)
	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // vanished mid-walk
		}
		if path == base || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		relPath, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return nil
		}
		ok, matchErr := doublestar.Match(pattern, filepath.ToSlash(relPath))
		if matchErr != nil || !ok {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		entry := o.entry(path, info)
		mu.Lock()
		matched = append(matched, entry)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, wrapOS("glob", rel, err)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Path < matched[j].Path })
	return matched, nil
}
