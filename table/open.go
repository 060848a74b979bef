package table

import (
	"archive/zip"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/h2non/filetype.v1"
)

// ErrUnreadable marks a table that could not be opened or read at all.
var ErrUnreadable = errors.New("unreadable table")

// sniffLen covers the longest magic number filetype checks.
const sniffLen = 262

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open returns a reader over the decompressed contents of path. Plain text,
// gzip (including BGZF, which is multi-member gzip) and single-entry zip
// archives are recognised by content, not by extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	br := bufio.NewReader(f)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	kind, _ := filetype.Match(head)

	switch kind.Extension {
	case "gz":
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
		}
		return &multiCloser{Reader: gz, closers: []io.Closer{f, gz}}, nil
	case "zip":
		f.Close()
		return openZip(path)
	default:
		return &multiCloser{Reader: br, closers: []io.Closer{f}}, nil
	}
}

func openZip(path string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if len(zr.File) == 0 {
		zr.Close()
		return nil, fmt.Errorf("%w: %s: empty zip archive", ErrUnreadable, path)
	}
	entry, err := zr.File[0].Open()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	return &multiCloser{Reader: entry, closers: []io.Closer{zr, entry}}, nil
}
