package vfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// Gzip compresses the file at rel into dest (rel with ".gz" appended when
// dest is empty). Both endpoints resolve through the sandbox, and the
// output lands via the usual temp-plus-rename sequence.
func (o *Ops) Gzip(rel, dest string) (FileEntry, error) {
	if dest == "" {
		dest = rel + ".gz"
	}
	src, err := o.resolve("gzip", rel)
	if err != nil {
		return FileEntry{}, err
	}
	if info, statErr := os.Stat(src); statErr != nil {
		return FileEntry{}, wrapOS("gzip", rel, statErr)
	} else if info.IsDir() {
		return FileEntry{}, opError("gzip", rel, ErrIsDir, nil)
	}

	target, err := o.resolver.ResolveForCreate(dest)
	if err != nil {
		return FileEntry{}, err
	}

	release := o.locks.acquire(target)
	defer release()

	err = withTempFile(target, func(w io.Writer) error {
		in, openErr := os.Open(src)
		if openErr != nil {
			return openErr
		}
		defer in.Close()

		gz := gzip.NewWriter(w)
		gz.Name = filepath.Base(src)
		if _, copyErr := io.Copy(gz, in); copyErr != nil {
			return copyErr
		}
		return gz.Close()
	})
	if err != nil {
		return FileEntry{}, wrapOS("gzip", rel, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return FileEntry{}, wrapOS("gzip", dest, err)
	}
	return o.entry(target, info), nil
}

// Gunzip decompresses the gzip file at rel into dest (rel minus the ".gz"
// suffix when dest is empty).
func (o *Ops) Gunzip(rel, dest string) (FileEntry, error) {
	if dest == "" {
		if !strings.HasSuffix(rel, ".gz") {
			return FileEntry{}, opError("gunzip", rel, ErrIO,
				fmt.Errorf("cannot derive output name from %q", rel))
		}
		dest = strings.TrimSuffix(rel, ".gz")
	}
	src, err := o.resolve("gunzip", rel)
	if err != nil {
		return FileEntry{}, err
	}
	target, err := o.resolver.ResolveForCreate(dest)
	if err != nil {
		return FileEntry{}, err
	}

	release := o.locks.acquire(target)
	defer release()

	err = withTempFile(target, func(w io.Writer) error {
		in, openErr := os.Open(src)
		if openErr != nil {
			return openErr
		}
		defer in.Close()

		gz, gzErr := gzip.NewReader(in)
		if gzErr != nil {
			return gzErr
		}
		defer gz.Close()

		// Decompression is bounded the same way reads are; a gzip bomb
		// should not exhaust the disk.
		limited := io.LimitReader(gz, o.maxRead+1)
		n, copyErr := io.Copy(w, limited)
		if copyErr != nil {
			return copyErr
		}
		if n > o.maxRead {
			return fmt.Errorf("decompressed size exceeds limit %d", o.maxRead)
		}
		return nil
	})
	if err != nil {
		return FileEntry{}, wrapOS("gunzip", rel, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return FileEntry{}, wrapOS("gunzip", dest, err)
	}
	return o.entry(target, info), nil
}

// withTempFile streams output into a temp file next to target and renames
// it into place on success.
func withTempFile(target string, fill func(io.Writer) error) error {
	dir, base := filepath.Dir(target), filepath.Base(target)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
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
