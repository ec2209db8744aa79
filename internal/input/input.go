// Package input opens the byte source counted by wc: a named file or the
// standard input, optionally decompressed.
package input

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/CZERTAINLY/wc/internal/model"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrIsDirectory is wrapped by FileOpenError when the path is a directory
var ErrIsDirectory = errors.New("is a directory")

// FileOpenError is returned when the given path cannot be opened for reading
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("cannot open file %s: %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() error {
	return e.Err
}

// Compression identifies the compression detected on the input.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type options struct {
	stdin      io.Reader
	stats      model.Stats
	decompress bool
}

type Option func(*options)

// WithStdin replaces os.Stdin as the source used for an empty path or "-"
func WithStdin(r io.Reader) Option {
	return func(o *options) {
		o.stdin = r
	}
}

func WithStats(s model.Stats) Option {
	return func(o *options) {
		o.stats = s
	}
}

// WithDecompression makes Open detect gzip and zstd streams and return
// their decompressed content. Other inputs are returned unchanged.
func WithDecompression(enabled bool) Option {
	return func(o *options) {
		o.decompress = enabled
	}
}

// Source is an opened byte source
type Source struct {
	// Name is the path given to Open, empty for stdin
	Name        string
	Compression Compression

	r       io.Reader
	closers []func() error
	stats   model.Stats
	readErr bool
}

// Open returns the source for path. An empty path or "-" means stdin.
// Failures to open a file are returned as *FileOpenError.
func Open(ctx context.Context, path string, opts ...Option) (*Source, error) {
	o := options{
		stdin: os.Stdin,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.stats != nil {
		o.stats.IncInputs()
	}

	src := &Source{stats: o.stats}
	if path == "" || path == "-" {
		src.r = o.stdin
	} else {
		f, err := openFile(path)
		if err != nil {
			if o.stats != nil {
				o.stats.IncErrInputs()
			}
			return nil, &FileOpenError{Path: path, Err: err}
		}
		src.Name = path
		src.r = f
		src.closers = append(src.closers, f.Close)
	}

	if o.decompress {
		if err := src.detect(); err != nil {
			_ = src.Close()
			if o.stats != nil {
				o.stats.IncErrInputs()
			}
			return nil, fmt.Errorf("initializing %s decoder: %w", src.Compression, err)
		}
	}
	return src, nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, ErrIsDirectory
	}
	return f, nil
}

// detect sniffs the magic bytes and wraps the reader into a decoder
func (s *Source) detect() error {
	br := bufio.NewReader(s.r)
	head, err := br.Peek(len(zstdMagic))
	s.r = br
	if err != nil && !errors.Is(err, io.EOF) {
		// bufio drops the error once reported by Peek, keep it for Read
		s.r = io.MultiReader(bytes.NewReader(bytes.Clone(head)), errReader{err: err})
		return nil
	}

	switch {
	case bytes.HasPrefix(head, zstdMagic):
		s.Compression = CompressionZstd
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return err
		}
		s.r = dec
		s.closers = append(s.closers, func() error {
			dec.Close()
			return nil
		})
	case bytes.HasPrefix(head, gzipMagic):
		s.Compression = CompressionGzip
		zr, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		s.r = zr
		s.closers = append(s.closers, zr.Close)
	}
	return nil
}

func (s *Source) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && !s.readErr {
		s.readErr = true
		if s.stats != nil {
			s.stats.IncErrReads()
		}
	}
	return n, err
}

// Close releases decoders and the file, stdin is never closed.
func (s *Source) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}
