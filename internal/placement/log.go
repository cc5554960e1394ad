package placement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Row is one failure entry of the result log.
type Row struct {
	Name    string   `json:"name"`
	Reasons []string `json:"reasons"`
}

// Log is the CSV failure log. Each row is "filename,reason1,reason2,...";
// lines starting with '#' are comments. Writes are serialized.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog returns a log backed by path. The file is created on first write.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the file location.
func (l *Log) Path() string {
	return l.path
}

// NormalizeName returns the NFC form used for log rows so names read back
// from the filesystem and from the log compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// Append writes one row.
func (l *Log) Append(name string, reasons []string) error {
	record := make([]string, 0, len(reasons)+1)
	record = append(record, NormalizeName(name))
	record = append(record, reasons...)

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.withAppend(func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(record); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
}

// AppendSummary writes the comment block recorded when a run finds no
// invalid images among total processed.
func (l *Log) AppendSummary(at time.Time, total int) error {
	var b strings.Builder
	b.WriteString("# Validation Summary: No invalid images found\n")
	fmt.Fprintf(&b, "# Validation completed at: %s\n", at.Format(time.DateTime))
	fmt.Fprintf(&b, "# Total images processed: %d\n", total)
	b.WriteString("# All images passed validation!\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.withAppend(func(f *os.File) error {
		_, err := f.WriteString(b.String())
		return err
	})
}

func (l *Log) withAppend(fn func(*os.File) error) error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open result log: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write result log: %w", err)
	}
	return f.Close()
}

// Rows reads every failure row, skipping comments and blank lines. A
// missing file reads as empty.
func (l *Log) Rows() ([]Row, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readRows()
}

func (l *Log) readRows() ([]Row, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open result log: %w", err)
	}
	defer f.Close()
	return parseRows(f)
}

func parseRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("parse result log: %w", err)
		}
		if len(record) == 0 || record[0] == "" {
			continue
		}
		rows = append(rows, Row{Name: record[0], Reasons: record[1:]})
	}
}

// Remove rewrites the log without the rows for names, keeping comment lines
// out. It returns how many rows were dropped.
func (l *Log) Remove(names []string) (int, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[NormalizeName(n)] = true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.readRows()
	if err != nil {
		return 0, err
	}
	kept := rows[:0]
	removed := 0
	for _, r := range rows {
		if drop[NormalizeName(r.Name)] {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, l.rewrite(kept)
}

func (l *Log) rewrite(rows []Row) error {
	tmp := l.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("rewrite result log: %w", err)
	}
	w := csv.NewWriter(f)
	for _, r := range rows {
		if err := w.Write(append([]string{r.Name}, r.Reasons...)); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("rewrite result log: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("rewrite result log: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, l.path)
}

// Clear truncates the log.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	if err := os.WriteFile(l.path, nil, 0o644); err != nil {
		return fmt.Errorf("clear result log: %w", err)
	}
	return nil
}

// CopyTo writes the raw log content, comments included, to dst.
func (l *Log) CopyTo(dst string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := os.ReadFile(l.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read result log: %w", err)
	}
	return os.WriteFile(dst, data, 0o644)
}
