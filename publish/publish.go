// Package publish persists documents as JSON files under an output
// directory. Every write goes to a temporary file first and is renamed into
// place, so readers never see a half written document.
package publish

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bistscrapper/market"
	"bistscrapper/utils"
)

const versionLayout = "2006-01-02"

// Writer writes documents below one directory.
type Writer struct {
	dir string
	now func() time.Time
}

func New(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// WithClock makes dated snapshots use now.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Path returns the location of a document. Names may contain a
// subdirectory.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, filepath.FromSlash(name))
}

// WriteJSON encodes v and atomically replaces the named document.
func (w *Writer) WriteJSON(name string, v any) error {
	data, err := utils.MarshalIndent(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return writeAtomic(w.Path(name), data)
}

// Read returns the raw content of a document.
func (w *Writer) Read(name string) ([]byte, error) {
	return os.ReadFile(w.Path(name))
}

// Version stores a dated copy of v as dir/prefix_YYYY-MM-DD.json. A second
// call on the same day replaces the copy.
func (w *Writer) Version(dir, prefix string, v any) (string, error) {
	name := filepath.ToSlash(filepath.Join(dir, prefix+"_"+w.now().Format(versionLayout)+".json"))
	return name, w.WriteJSON(name, v)
}

// PruneVersions removes dated copies older than maxAge and returns the
// names it removed.
func (w *Writer) PruneVersions(dir, prefix string, maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(w.Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cutoff := w.now().Add(-maxAge)
	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"_"), ".json")
		day, err := time.ParseInLocation(versionLayout, stamp, cutoff.Location())
		if err != nil || !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(w.Path(dir), name)); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	sort.Strings(removed)
	return removed, nil
}

// RepairFile fixes mangled Turkish letters inside a JSON file in place. It
// reports whether the file changed.
func RepairFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if text := string(data); !utils.NeedsRepair(text) || utils.RepairEncoding(text) == text {
		return false, nil
	}
	fixed, err := market.RepairJSON(data)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if bytes.Equal(fixed, data) {
		return false, nil
	}
	return true, writeAtomic(path, fixed)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
