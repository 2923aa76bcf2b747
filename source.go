package main

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
)

const readBufferSize = 64 << 10

// LineSource yields log lines without their line terminator. A returned
// slice is only valid until the next call to Next.
type LineSource interface {
	Next() ([]byte, bool)
	Err() error
	Close() error
}

// openLineSource opens the source selected by conf.Reader.
func openLineSource(conf Config) (LineSource, error) {
	switch conf.Reader {
	case readerJournal:
		return openJournalSource(conf.JournalUnit)
	case readerMmap:
		if conf.LogFile != "-" {
			return openMmapSource(conf.LogFile)
		}
	}
	return openBufferedSource(conf.LogFile)
}

// readerSource reads lines with a bufio.Reader. A line longer than the
// buffer is joined in line, so no length limit applies.
type readerSource struct {
	r      *bufio.Reader
	closer io.Closer
	long   []byte
	err    error
}

func newReaderSource(r io.Reader, c io.Closer) *readerSource {
	return &readerSource{r: bufio.NewReaderSize(r, readBufferSize), closer: c}
}

func openBufferedSource(path string) (LineSource, error) {
	if path == "-" {
		return newReaderSource(os.Stdin, io.NopCloser(os.Stdin)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}
	return newReaderSource(f, f), nil
}

func (s *readerSource) Next() ([]byte, bool) {
	if s.err != nil {
		return nil, false
	}
	line, err := s.r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		s.long = append(s.long[:0], line...)
		for err == bufio.ErrBufferFull {
			line, err = s.r.ReadSlice('\n')
			s.long = append(s.long, line...)
		}
		line = s.long
	}
	if err != nil {
		s.err = err
		if err != io.EOF || len(line) == 0 {
			return nil, false
		}
		// last line, no terminator
		return dropCR(line), true
	}
	return dropCR(line[:len(line)-1]), true
}

func (s *readerSource) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

func (s *readerSource) Close() error {
	return s.closer.Close()
}

func dropCR(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		return line[:len(line)-1]
	}
	return line
}
