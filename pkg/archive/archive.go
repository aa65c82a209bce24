// Package archive decodes zip entries from a purely sequential byte stream.
//
// The stream never needs to be seekable or fully resident: entries are
// surfaced one at a time as they are decoded, and each entry's body is a
// single-pass reader positioned over the underlying stream. Directory and
// non-regular records (symlinks, devices) are consumed and discarded.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/krolaw/zipstream"
)

// EntryType classifies an archive record.
type EntryType int

const (
	// TypeFile is a regular file record.
	TypeFile EntryType = iota

	// TypeDirectory is a directory record (trailing separator or dir mode).
	TypeDirectory

	// TypeOther is any non-regular record: symlink, device, socket, etc.
	TypeOther
)

// String returns the string representation of the entry type.
func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	default:
		return "other"
	}
}

// Entry is one regular-file record decoded from the archive.
//
// Body is valid only until the next call to Reader.Scan and yields the
// entry's uncompressed bytes exactly once.
type Entry struct {
	// Path is the entry's relative path inside the archive.
	Path string

	// Type is the record classification. Reader only surfaces TypeFile.
	Type EntryType

	// Size is the uncompressed size in bytes, or -1 when the archive
	// defers sizes to a trailing data descriptor.
	Size int64

	// Body streams the entry's uncompressed content.
	Body io.Reader
}

// ExtractError indicates the archive could not be decoded past a record.
type ExtractError struct {
	// Path is the entry being decoded when the failure occurred, if known.
	Path string

	// Err is the underlying decode error.
	Err error
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("archive: decode %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("archive: decode: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Reader iterates over the regular-file entries of a zip stream.
//
// Usage follows the bufio.Scanner shape:
//
//	ar := archive.NewReader(src)
//	for ar.Scan() {
//		entry := ar.Entry()
//		// consume entry.Body before the next Scan
//	}
//	if err := ar.Err(); err != nil { ... }
//
// The decoder signals end-of-archive with io.EOF internally; Reader
// normalizes that to Scan returning false with a nil Err, so callers see a
// single clean termination signal. Reader is not safe for concurrent use
// and cannot be restarted.
type Reader struct {
	zr      *zipstream.Reader
	entry   *Entry
	err     error
	done    bool
	lastHdr string
}

// NewReader returns a Reader decoding the zip stream r.
func NewReader(r io.Reader) *Reader {
	return &Reader{zr: zipstream.NewReader(r)}
}

// Scan advances to the next regular-file entry, silently skipping
// directory and non-regular records. It returns false when the
// end-of-archive marker is reached or decoding fails; Err distinguishes
// the two. Any unread bytes of the previous entry are discarded.
func (r *Reader) Scan() bool {
	if r.done || r.err != nil {
		return false
	}

	for {
		hdr, err := r.zr.Next()
		if err == io.EOF {
			r.done = true
			r.entry = nil
			return false
		}
		if err != nil {
			r.err = &ExtractError{Path: r.lastHdr, Err: err}
			r.entry = nil
			return false
		}

		r.lastHdr = hdr.Name
		if Classify(hdr) != TypeFile {
			continue
		}

		r.entry = &Entry{
			Path: hdr.Name,
			Type: TypeFile,
			Size: uncompressedSize(hdr),
			Body: r.zr,
		}
		return true
	}
}

// Entry returns the current entry. Only valid after Scan returned true.
func (r *Reader) Entry() *Entry {
	return r.entry
}

// Err returns the first decoding error encountered, or nil if the archive
// terminated cleanly (or iteration has not finished).
func (r *Reader) Err() error {
	return r.err
}

// Classify maps a zip header to an entry type.
//
// A trailing path separator or directory mode bit means directory; any
// other non-regular mode bit (symlink, device, ...) means other.
func Classify(hdr *zip.FileHeader) EntryType {
	mode := hdr.Mode()
	switch {
	case strings.HasSuffix(hdr.Name, "/") || mode.IsDir():
		return TypeDirectory
	case mode&fs.ModeType != 0:
		return TypeOther
	default:
		return TypeFile
	}
}

// uncompressedSize returns the header's uncompressed size, or -1 when the
// archive was written in streaming mode and sizes trail the entry data.
func uncompressedSize(hdr *zip.FileHeader) int64 {
	const hasDataDescriptor = 0x8
	if hdr.Flags&hasDataDescriptor != 0 {
		return -1
	}
	return int64(hdr.UncompressedSize64)
}
