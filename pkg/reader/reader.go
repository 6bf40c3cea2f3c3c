package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Scanner buffer sizing: lines up to maxLineSize are supported without
// loading the file itself into memory.
const (
	initialBufferSize = 64 * 1024
	maxLineSize       = 1024 * 1024
)

// LineReader provides sequential access to the lines of a single file.
// Sources ending in .gz, .zst or .zstd are decompressed transparently;
// line numbers refer to the decoded text.
type LineReader struct {
	path    string
	file    *os.File
	decoder io.Closer
	scanner *bufio.Scanner
	line    Line
	number  int
	err     error
	closed  bool
}

// Open creates a line reader for the specified file
func Open(path string) (*LineReader, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	source, decoder, err := decodeStream(path, file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	scanner := bufio.NewScanner(source)
	scanner.Buffer(make([]byte, 0, initialBufferSize), maxLineSize)

	return &LineReader{
		path:    path,
		file:    file,
		decoder: decoder,
		scanner: scanner,
	}, nil
}

// Next advances to the next line, reading it on demand. It returns
// false at end of input or on a read failure; Err distinguishes the
// two.
func (r *LineReader) Next() bool {
	if r.err != nil || r.closed {
		return false
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			r.err = fmt.Errorf("read %s: %w: %v", r.path, ErrIO, err)
		}
		return false
	}

	r.number++
	r.line = Line{Text: r.scanner.Text(), Number: r.number, Path: r.path}

	return true
}

// Line returns the current line
func (r *LineReader) Line() Line {
	return r.line
}

// Err returns the terminal error, nil after a clean end of input
func (r *LineReader) Err() error {
	return r.err
}

// Close releases the underlying file. Safe to call repeatedly; the
// handle is closed exactly once.
func (r *LineReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if r.decoder != nil {
		if err := r.decoder.Close(); err != nil {
			r.file.Close()
			return err
		}
	}

	return r.file.Close()
}

// IsArchive reports whether path names a compressed log source
func IsArchive(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".zst", ".zstd":
		return true
	}

	return false
}

// decodeStream wraps compressed sources in a streaming decoder chosen
// by path suffix. The returned closer, when non-nil, must be closed
// before the file itself.
func decodeStream(path string, file *os.File) (io.Reader, io.Closer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(file)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(file)
		if err != nil {
			return nil, nil, err
		}
		rc := zr.IOReadCloser()
		return rc, rc, nil
	}

	return file, nil, nil
}
