// Package dataset persists generated annotations: a JSON Lines file next to
// the images, a manifest describing the run, and a SQLite index of runs,
// snapshots and boxes.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/banshee-data/sdg/internal/projection"
)

// AnnotationsFile is the JSON Lines file written into the target directory.
const AnnotationsFile = "annotations.jsonl"

// maxLineSize bounds a single annotation line when reading.
const maxLineSize = 16 * 1024 * 1024

// JSONLWriter appends one annotation per line. Every Write is flushed so a
// cancelled run leaves only complete lines behind.
type JSONLWriter struct {
	mu    sync.Mutex
	f     *os.File
	count int
}

// NewJSONLWriter creates or truncates path, creating its directory.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dataset dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &JSONLWriter{f: f}, nil
}

// Write appends a.
func (w *JSONLWriter) Write(a projection.Annotation) error {
	line, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode annotation %s: %w", a.FileName, err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(line); err != nil {
		return fmt.Errorf("failed to write annotation %s: %w", a.FileName, err)
	}
	w.count++
	return nil
}

// Count returns the number of annotations written by this writer.
func (w *JSONLWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close syncs and closes the file.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// ReadJSONL reads every annotation in path. Blank lines are skipped.
func ReadJSONL(path string) ([]projection.Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var out []projection.Annotation
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var a projection.Annotation
		if err := json.Unmarshal(sc.Bytes(), &a); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, a)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return out, nil
}
