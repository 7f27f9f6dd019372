package health

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	initialLineBuffer = 64 * 1024
	// MaxLineSize bounds a single line; Apple records are far shorter.
	MaxLineSize = 16 * 1024 * 1024
)

// LineSource yields the lines of an export one at a time.
type LineSource struct {
	path    string
	scanner *bufio.Scanner
	closers []io.Closer
	err     error
}

// OpenLines opens path for line-by-line reading. Files ending in .gz or .zst are
// decompressed on the fly; a .zip archive is searched for export.xml.
func OpenLines(p string) (*LineSource, error) {
	file, err := os.Open(p)
	if err != nil {
		return nil, &IOError{Op: "open", Path: p, Err: err}
	}
	src := &LineSource{path: p}

	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		zr, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, &IOError{Op: "open", Path: p, Err: err}
		}
		src.closers = append(src.closers, zr, file)
		src.scanner = newLineScanner(zr)
	case strings.HasSuffix(lower, ".zst"):
		zr, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, &IOError{Op: "open", Path: p, Err: err}
		}
		src.closers = append(src.closers, zstdCloser{zr}, file)
		src.scanner = newLineScanner(zr)
	case strings.HasSuffix(lower, ".zip"):
		_ = file.Close()
		zr, err := zip.OpenReader(p)
		if err != nil {
			return nil, &IOError{Op: "open", Path: p, Err: err}
		}
		entry, err := findExportEntry(zr.File)
		if err != nil {
			_ = zr.Close()
			return nil, &IOError{Op: "open", Path: p, Err: err}
		}
		rc, err := entry.Open()
		if err != nil {
			_ = zr.Close()
			return nil, &IOError{Op: "open", Path: p, Err: err}
		}
		src.closers = append(src.closers, rc, zr)
		src.scanner = newLineScanner(rc)
	default:
		src.closers = append(src.closers, file)
		src.scanner = newLineScanner(file)
	}
	return src, nil
}

// NewLineSource reads lines from r. The caller owns r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{scanner: newLineScanner(r)}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), MaxLineSize)
	return scanner
}

// Scan advances to the next line. It returns false at end of input or on error.
func (s *LineSource) Scan() bool {
	if s.err != nil {
		return false
	}
	return s.scanner.Scan()
}

// Text returns the current line without its terminator.
func (s *LineSource) Text() string {
	return s.scanner.Text()
}

// Err returns the first read error, if any, as an *IOError.
func (s *LineSource) Err() error {
	if s.err != nil {
		return s.err
	}
	if err := s.scanner.Err(); err != nil {
		s.err = &IOError{Op: "read", Path: s.path, Err: err}
	}
	return s.err
}

// Close releases every underlying reader.
func (s *LineSource) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func findExportEntry(files []*zip.File) (*zip.File, error) {
	var fallback *zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(f.Name)
		if name == "export.xml" {
			return f, nil
		}
		if fallback == nil && strings.HasSuffix(strings.ToLower(name), ".xml") && !strings.HasPrefix(name, "export_cda") {
			fallback = f
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("no export.xml in archive")
}

type zstdCloser struct {
	d *zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}
