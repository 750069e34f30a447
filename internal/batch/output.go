package batch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Writer appends output records to a CSV file one at a time. A previous
// run's file at the same path is removed up front, but the new file is not
// created until the first record: a run that emits no records leaves no
// output file. The header precedes the first record and every record is
// flushed to disk immediately, so rows already emitted survive a later
// fatal error.
type Writer struct {
	path   string
	header []string

	f *os.File
	w *csv.Writer
}

// NewWriter prepares an output writer at path, clearing any previous run's
// file there.
func NewWriter(path string, header []string) (*Writer, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove previous output: %w", err)
	}

	return &Writer{
		path:   path,
		header: header,
	}, nil
}

// Append writes one record, creating the file and writing the header on
// first use.
func (w *Writer) Append(record []string) error {
	if w.f == nil {
		if err := w.create(); err != nil {
			return err
		}
	}
	if err := w.w.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func (w *Writer) create() error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	w.f = f
	w.w = csv.NewWriter(f)

	if err := w.w.Write(w.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Close flushes and closes the output file, if one was created.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
