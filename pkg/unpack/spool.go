package unpack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// spooledBody holds one entry body decoupled from the archive stream.
//
// Zip entries share a single sequential source, so their bodies cannot be
// read concurrently in place. The feeder spools each surviving body in
// archive order: up to maxMemory bytes stay in memory, anything larger
// spills to a temp file. The result is also seekable, which lets the SDK
// retry an upload without re-reading the archive.
type spooledBody struct {
	reader  io.ReadSeeker
	size    int64
	cleanup func() error
}

func (b *spooledBody) Reader() io.ReadSeeker { return b.reader }

func (b *spooledBody) Len() int64 { return b.size }

func (b *spooledBody) Close() error {
	if b.cleanup == nil {
		return nil
	}
	return b.cleanup()
}

func newSpooledBody(src io.Reader, maxMemory int64) (*spooledBody, error) {
	if maxMemory <= 0 {
		maxMemory = DefaultSpoolMaxMemoryBytes
	}

	var buf bytes.Buffer
	n, err := io.CopyN(&buf, src, maxMemory+1)
	if errors.Is(err, io.EOF) {
		return &spooledBody{reader: bytes.NewReader(buf.Bytes()), size: n}, nil
	}
	if err != nil {
		return nil, err
	}

	// Body exceeds the memory bound: spill everything to a temp file.
	f, err := os.CreateTemp("", "zipcourier-spool-*")
	if err != nil {
		return nil, err
	}

	remove := func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		remove()
		return nil, err
	}
	rest, err := io.Copy(f, src)
	if err != nil {
		remove()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		remove()
		return nil, err
	}

	return &spooledBody{
		reader: f,
		size:   n + rest,
		cleanup: func() error {
			name := f.Name()
			closeErr := f.Close()
			rmErr := os.Remove(name)
			if closeErr != nil {
				return fmt.Errorf("close spool file: %w", closeErr)
			}
			if rmErr != nil {
				return fmt.Errorf("remove spool file: %w", rmErr)
			}
			return nil
		},
	}, nil
}
