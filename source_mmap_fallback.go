//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package main

// openMmapSource falls back to buffered reads where mmap is unavailable.
func openMmapSource(path string) (LineSource, error) {
	return openBufferedSource(path)
}
