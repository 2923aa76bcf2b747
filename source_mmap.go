//go:build linux || darwin || freebsd || netbsd || openbsd

package main

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mmapSource hands out slices of a read-only mapping of the whole file.
type mmapSource struct {
	data []byte
	pos  int
}

func openMmapSource(path string) (LineSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat log file")
	}
	if fi.Size() == 0 {
		return &mmapSource{}, nil
	}
	if int64(int(fi.Size())) != fi.Size() {
		return nil, errors.Errorf("log file %s too large to map", path)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrap(err, "failed to map log file")
	}
	return &mmapSource{data: data}, nil
}

func (s *mmapSource) Next() ([]byte, bool) {
	if s.pos >= len(s.data) {
		return nil, false
	}
	rest := s.data[s.pos:]
	n := bytes.IndexByte(rest, '\n')
	if n < 0 {
		n = len(rest)
		s.pos = len(s.data)
	} else {
		s.pos += n + 1
	}
	return dropCR(rest[:n]), true
}

func (s *mmapSource) Err() error {
	return nil
}

func (s *mmapSource) Close() error {
	if s.data == nil {
		return nil
	}
	data := s.data
	s.data = nil
	return unix.Munmap(data)
}
