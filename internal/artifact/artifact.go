// Package artifact writes the text artifacts the pipeline produces and wraps
// their I/O failures in a single error kind, so callers can decide per stage
// whether a failed write aborts the run or is logged and skipped.
package artifact

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// FileWriteError reports an I/O failure while serializing one artifact.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error { return e.Err }

// WriteFile creates path, streams content through write, and flushes. Any
// failure comes back as a *FileWriteError.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return &FileWriteError{Path: path, Err: err}
	}
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return &FileWriteError{Path: path, Err: err}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return &FileWriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &FileWriteError{Path: path, Err: err}
	}
	return nil
}
