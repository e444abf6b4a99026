package edb

import (
	"os"

	"golang.org/x/exp/mmap"

	"github.com/essadb/essadb/pkg/storage"
)

// mappedFile backs all EDB reads through a read-only memory mapping
// and all writes through positional os.File writes, re-deriving the
// mapping whenever the file grows (spec §4.7's "Memory mapping"
// paragraph: x/exp/mmap.ReaderAt has no write side, so mutation goes
// through WriteAt followed by a remap).
type mappedFile struct {
	path string
	f    *os.File
	ro   *mmap.ReaderAt
	size int64
}

func openMappedFile(path string, create bool) (*mappedFile, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, &storage.OsError{Func: "open", Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &storage.OsError{Func: "stat", Err: err}
	}
	mf := &mappedFile{path: path, f: f, size: info.Size()}
	if mf.size > 0 {
		if err := mf.remap(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return mf, nil
}

// remap drops the current mapping (if any) and re-opens it over the
// file's current size, called after every write that grows the file.
func (mf *mappedFile) remap() error {
	if mf.ro != nil {
		mf.ro.Close()
		mf.ro = nil
	}
	ro, err := mmap.Open(mf.path)
	if err != nil {
		return &storage.OsError{Func: "mmap", Err: err}
	}
	mf.ro = ro
	return nil
}

// growTo extends the file to at least n bytes via truncate-extend,
// then remaps (spec §4.7).
func (mf *mappedFile) growTo(n int64) error {
	if n <= mf.size {
		return nil
	}
	if err := mf.f.Truncate(n); err != nil {
		return &storage.OsError{Func: "truncate", Err: err}
	}
	mf.size = n
	return mf.remap()
}

// readAt copies n bytes at offset off out of the mapping.
func (mf *mappedFile) readAt(off int64, n int) ([]byte, error) {
	if mf.ro == nil {
		return nil, &storage.CorruptionError{Reason: "read before any data was written"}
	}
	buf := make([]byte, n)
	if _, err := mf.ro.ReadAt(buf, off); err != nil {
		return nil, &storage.OsError{Func: "mmap.ReadAt", Err: err}
	}
	return buf, nil
}

// writeAt is the bounded copy-in/copy-out helper spec §4.7 requires:
// every structured-field write goes through here rather than touching
// the mapping directly, growing the file first if needed.
func (mf *mappedFile) writeAt(off int64, data []byte) error {
	// growTo remaps only when it actually extends the file; an
	// in-place overwrite is visible through the existing shared
	// mapping without re-deriving it.
	if err := mf.growTo(off + int64(len(data))); err != nil {
		return err
	}
	if _, err := mf.f.WriteAt(data, off); err != nil {
		return &storage.OsError{Func: "WriteAt", Err: err}
	}
	return nil
}

// replaceFile atomically swaps tmpPath in for path, used by schema
// rewrites that build a fresh file before discarding the old one.
func replaceFile(tmpPath, path string) error {
	if err := os.Rename(tmpPath, path); err != nil {
		return &storage.OsError{Func: "rename", Err: err}
	}
	return nil
}

func (mf *mappedFile) close() error {
	var err error
	if mf.ro != nil {
		err = mf.ro.Close()
	}
	if cerr := mf.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return &storage.OsError{Func: "close", Err: err}
	}
	return nil
}
