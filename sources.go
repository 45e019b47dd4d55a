package triage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Echo returns a pipe containing the supplied string.
func Echo(s string) *Pipe {
	return NewPipe().WithReader(strings.NewReader(s))
}

// File returns a *Pipe associated with the specified file. If the name ends in
// ".gz", the contents are transparently decompressed. If there is an error
// opening the file, or it isn't valid gzip, the pipe's error status will be
// set and the file will already have been closed. An empty ".gz" file reads as
// empty input.
func File(name string) *Pipe {
	p := NewPipe()
	f, err := os.Open(name)
	if err != nil {
		return p.WithError(err)
	}
	if !strings.HasSuffix(name, ".gz") {
		return p.WithReader(f)
	}
	zr, err := gzip.NewReader(f)
	if errors.Is(err, io.EOF) {
		f.Close()
		return p
	}
	if err != nil {
		f.Close()
		return p.WithError(fmt.Errorf("%s: %w", name, err))
	}
	return p.WithReader(gzipFile{zr, f})
}

// gzipFile closes both the decompressor and the file underneath it.
type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	zerr := g.Reader.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
