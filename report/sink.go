package report

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Sink is the destination of the persisted report. When the report file
// cannot be created it falls back to another writer.
type Sink struct {
	io.Writer
	Path     string
	Fallback bool
	file     *os.File
}

// OpenSink creates the file at path, falling back to fallback with a
// diagnostic when that is not possible.
func OpenSink(path string, fallback io.Writer) *Sink {
	f, err := createFile(path)
	if err != nil {
		slog.Warn("report file unavailable, using fallback output",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return &Sink{Writer: fallback, Path: path, Fallback: true}
	}
	return &Sink{Writer: f, Path: path, file: f}
}

// Close closes the report file; a fallback sink is left open.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Publish writes r in format to a sink at path and the text rendering to
// console. Failing to create the file is not an error; failing to write is.
func Publish(r *Report, format, path string, console, fallback io.Writer) error {
	sink := OpenSink(path, fallback)

	writer, err := NewWriter(format, sink)
	if err != nil {
		sink.Close()
		return err
	}

	var errs []error
	if err := writer.Write(r); err != nil {
		errs = append(errs, fmt.Errorf("write %s report: %w", format, err))
	}
	if err := sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close report file: %w", err))
	}
	if console != nil {
		if err := NewTextWriter(console).Write(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func createFile(path string) (*os.File, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	return f, nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
