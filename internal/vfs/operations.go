package vfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxReadBytes caps whole-file reads at 10 MiB unless configured
// otherwise.
const DefaultMaxReadBytes = 10 << 20

// Options tune an Ops instance.
type Options struct {
	// MaxReadBytes caps how large a file Read will return. Zero means
	// DefaultMaxReadBytes.
	MaxReadBytes int64
	// AllowedExtensions, when non-empty, restricts which extensions may be
	// written. Entries are matched case-insensitively, with or without the
	// leading dot.
	AllowedExtensions []string
}

// Ops performs sandboxed file operations over a single volume root. It is
// safe for concurrent use; the filesystem is the only shared state.
type Ops struct {
	resolver   *Resolver
	classifier *Classifier
	locks      *pathLocks
	log        *zap.Logger
	maxRead    int64
	allowedExt map[string]bool
}

// NewOps builds the engine for root, which must be an existing directory.
func NewOps(root string, logger *zap.Logger, opts Options) (*Ops, error) {
	resolver, err := NewResolver(root)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRead := opts.MaxReadBytes
	if maxRead <= 0 {
		maxRead = DefaultMaxReadBytes
	}
	var allowed map[string]bool
	if len(opts.AllowedExtensions) > 0 {
		allowed = make(map[string]bool, len(opts.AllowedExtensions))
		for _, ext := range opts.AllowedExtensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			allowed[ext] = true
		}
	}
	return &Ops{
		resolver:   resolver,
		classifier: NewClassifier(),
		locks:      newPathLocks(),
		log:        logger,
		maxRead:    maxRead,
		allowedExt: allowed,
	}, nil
}

// Root returns the canonical volume root.
func (o *Ops) Root() string { return o.resolver.Root() }

// Resolver exposes the containment checker for collaborators such as the
// stats aggregator.
func (o *Ops) Resolver() *Resolver { return o.resolver }

// Classifier exposes the content classifier.
func (o *Ops) Classifier() *Classifier { return o.classifier }

// List returns a non-recursive, single-level listing of the directory at
// rel. The empty path lists the volume root. Directories sort before
// files, then by name.
func (o *Ops) List(rel string) ([]FileEntry, error) {
	dir, err := o.resolve("list", rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, wrapOS("list", rel, err)
	}
	if !info.IsDir() {
		return nil, opError("list", rel, ErrNotDir, nil)
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, wrapOS("list", rel, err)
	}

	entries := make([]FileEntry, 0, len(children))
	for _, child := range children {
		childPath := filepath.Join(dir, child.Name())
		childInfo, err := child.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info: benign race.
			continue
		}
		entries = append(entries, o.entry(childPath, childInfo))
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind == KindDirectory
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Read returns the content of the file at rel as a tagged payload along
// with its classification. Text-classified files must decode as UTF-8;
// anything else fails with ErrEncoding rather than silently substituting
// characters.
func (o *Ops) Read(rel string) (Payload, Classification, error) {
	target, err := o.resolve("read", rel)
	if err != nil {
		return Payload{}, Classification{}, err
	}

	info, err := os.Stat(target)
	if err != nil {
		return Payload{}, Classification{}, wrapOS("read", rel, err)
	}
	if info.IsDir() {
		return Payload{}, Classification{}, opError("read", rel, ErrIsDir, nil)
	}
	if info.Size() > o.maxRead {
		return Payload{}, Classification{}, opError("read", rel, ErrIO,
			fmt.Errorf("file size %d exceeds read limit %d", info.Size(), o.maxRead))
	}

	class, err := o.classifier.Classify(target)
	if err != nil {
		return Payload{}, Classification{}, err
	}

	f, err := os.Open(target)
	if err != nil {
		return Payload{}, Classification{}, wrapOS("read", rel, err)
	}
	defer f.Close()

	// The limit is rechecked while reading: the file can grow between the
	// stat above and the read below.
	data, err := io.ReadAll(io.LimitReader(f, o.maxRead+1))
	if err != nil {
		return Payload{}, Classification{}, wrapOS("read", rel, err)
	}
	if int64(len(data)) > o.maxRead {
		return Payload{}, Classification{}, opError("read", rel, ErrIO,
			fmt.Errorf("file exceeds read limit %d", o.maxRead))
	}

	if class.Binary {
		return Binary(data), class, nil
	}
	if !utf8.Valid(data) {
		return Payload{}, Classification{}, opError("read", rel, ErrEncoding,
			errors.New("text-classified file is not valid UTF-8"))
	}
	return Text(string(data)), class, nil
}

// Write stores payload at rel atomically: the content lands in a temp file
// in the target directory and is renamed into place, so a concurrent
// reader observes either the old or the new content, never a partial
// write. Parent directories are created only when makeParents is set.
func (o *Ops) Write(rel string, payload Payload, makeParents bool) (FileEntry, error) {
	if err := o.checkExtension("write", rel); err != nil {
		return FileEntry{}, err
	}

	var target string
	var err error
	if makeParents {
		target, err = o.resolver.ResolveAncestor(rel)
	} else {
		target, err = o.resolver.ResolveForCreate(rel)
	}
	if err != nil {
		return FileEntry{}, err
	}

	if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
		return FileEntry{}, opError("write", rel, ErrIsDir, nil)
	}

	release := o.locks.acquire(target)
	defer release()

	dir := filepath.Dir(target)
	if makeParents {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return FileEntry{}, wrapOS("write", rel, err)
		}
	}

	if err := writeAtomic(target, payload.Bytes()); err != nil {
		return FileEntry{}, wrapOS("write", rel, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return FileEntry{}, wrapOS("write", rel, err)
	}
	o.log.Debug("file written",
		zap.String("path", rel),
		zap.Int("bytes", payload.Size()),
		zap.Bool("binary", payload.IsBinary()))
	return o.entry(target, info), nil
}

// writeAtomic writes data next to the target and renames it into place.
func writeAtomic(target string, data []byte) error {
	dir, base := filepath.Dir(target), filepath.Base(target)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes the file or directory tree at rel. Directory trees are
// walked with a containment re-check on every descendant directory, so a
// symlink planted inside the tree cannot redirect the removal outside the
// sandbox. Entries that disappear mid-walk are treated as already removed.
func (o *Ops) Delete(rel string) error {
	target, err := o.resolve("delete", rel)
	if err != nil {
		return err
	}
	if target == o.resolver.Root() {
		return opError("delete", rel, ErrPermission, errors.New("refusing to delete the volume root"))
	}

	info, err := os.Lstat(target)
	if err != nil {
		return wrapOS("delete", rel, err)
	}
	if !info.IsDir() {
		if err := os.Remove(target); err != nil {
			return wrapOS("delete", rel, err)
		}
		return nil
	}
	if err := o.deleteTree(rel, target); err != nil {
		return err
	}
	o.log.Debug("directory tree removed", zap.String("path", rel))
	return nil
}

func (o *Ops) deleteTree(rel, dir string) error {
	children, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // removed concurrently
		}
		return wrapOS("delete", rel, err)
	}

	for _, child := range children {
		childPath := filepath.Join(dir, child.Name())
		childInfo, err := os.Lstat(childPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return wrapOS("delete", rel, err)
		}

		// Symlinks are unlinked, never followed.
		if childInfo.Mode()&fs.ModeSymlink != 0 || !childInfo.IsDir() {
			if err := os.Remove(childPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return wrapOS("delete", rel, err)
			}
			continue
		}

		// The tree can be mutated under us; re-validate before descending.
		real, err := filepath.EvalSymlinks(childPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return wrapOS("delete", rel, err)
		}
		if !o.resolver.contains(real) {
			o.log.Warn("containment violation during delete",
				zap.String("path", rel),
				zap.String("descendant", childPath))
			return opError("delete", rel, ErrTraversal, nil)
		}
		if err := o.deleteTree(rel, real); err != nil {
			return err
		}
	}

	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return wrapOS("delete", rel, err)
	}
	return nil
}

// Mkdir creates the directory at rel, including missing parents. It is
// idempotent when the directory already exists and fails with ErrExists
// when a non-directory occupies the path.
func (o *Ops) Mkdir(rel string) error {
	target, err := o.resolver.ResolveAncestor(rel)
	if err != nil {
		return err
	}

	if info, statErr := os.Stat(target); statErr == nil {
		if info.IsDir() {
			return nil
		}
		return opError("mkdir", rel, ErrExists, nil)
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return wrapOS("mkdir", rel, err)
	}
	return nil
}

// Stat returns the metadata snapshot for the file or directory at rel.
func (o *Ops) Stat(rel string) (FileEntry, error) {
	target, err := o.resolve("stat", rel)
	if err != nil {
		return FileEntry{}, err
	}
	info, err := os.Stat(target)
	if err != nil {
		return FileEntry{}, wrapOS("stat", rel, err)
	}
	return o.entry(target, info), nil
}

// Exists reports whether rel names an existing entry. Traversal attempts
// still fail; only absence maps to false.
func (o *Ops) Exists(rel string) (bool, error) {
	_, err := o.resolve("stat", rel)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// resolve wraps Resolver.Resolve and logs traversal rejections; a rejected
// path is a security-relevant event, not a routine failure.
func (o *Ops) resolve(op, rel string) (string, error) {
	target, err := o.resolver.Resolve(rel)
	if err != nil {
		if errors.Is(err, ErrTraversal) {
			o.log.Warn("path traversal rejected",
				zap.String("op", op),
				zap.String("path", rel))
		}
		if vErr := (*Error)(nil); errors.As(err, &vErr) {
			return "", opError(op, rel, vErr.Kind, vErr.Err)
		}
		return "", err
	}
	return target, nil
}

func (o *Ops) checkExtension(op, rel string) error {
	if o.allowedExt == nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(rel))
	if !o.allowedExt[ext] {
		return opError(op, rel, ErrPermission,
			fmt.Errorf("extension %q is not in the allowed list", ext))
	}
	return nil
}

// entry builds the metadata snapshot for a resolved path. Classification
// failures (entry vanished, unreadable) leave the MIME fields zeroed
// rather than failing the whole listing.
func (o *Ops) entry(abs string, info fs.FileInfo) FileEntry {
	e := FileEntry{
		Name:     info.Name(),
		Path:     o.resolver.Rel(abs),
		Kind:     KindFile,
		Size:     info.Size(),
		Mode:     info.Mode().Perm().String(),
		Modified: info.ModTime(),
	}
	if info.IsDir() {
		e.Kind = KindDirectory
		e.Size = 0
		return e
	}
	if class, err := o.classifier.Classify(abs); err == nil {
		e.MIMEType = class.MIME
		e.IsBinary = class.Binary
	}
	return e
}
