package progress

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{"reading_title", "aliyah_number", "is_complete", "date_completed"}

// legacyTitleColumn is accepted in place of reading_title when reading.
const legacyTitleColumn = "parsha_name"

// naive timestamps, as written by older trackers, are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// CSVBackend stores progress in a CSV file with one row per record.
type CSVBackend struct {
	path string
}

func NewCSVBackend(path string) *CSVBackend {
	return &CSVBackend{path: path}
}

// ReadAll parses the file, creating it with just the header if missing.
func (b *CSVBackend) ReadAll() (map[Key]Record, error) {
	f, err := os.Open(b.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := b.WriteAll(nil); err != nil {
			return nil, err
		}
		return make(map[Key]Record), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open progress file: %w", err)
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) (map[Key]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return make(map[Key]Record), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	titleCol, ok := cols[csvHeader[0]]
	if !ok {
		if titleCol, ok = cols[legacyTitleColumn]; !ok {
			return nil, fmt.Errorf("progress file has no %s column", csvHeader[0])
		}
	}
	for _, name := range csvHeader[1:3] {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("progress file has no %s column", name)
		}
	}
	dateCol, hasDate := cols[csvHeader[3]]

	out := make(map[Key]Record)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		field := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		// Titles are keys and round-trip verbatim.
		title := ""
		if titleCol < len(row) {
			title = row[titleCol]
		}

		n, err := strconv.Atoi(field(cols["aliyah_number"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: aliyah_number: %w", line, err)
		}
		complete, err := strconv.ParseBool(field(cols["is_complete"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: is_complete: %w", line, err)
		}
		rec := Record{IsComplete: complete}
		if hasDate {
			if raw := field(dateCol); raw != "" {
				ts, err := parseTime(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d: date_completed: %w", line, err)
				}
				rec.DateCompleted = &ts
			}
		}
		out[Key{Title: title, Number: n}] = rec
	}
	return out, nil
}

func parseTime(raw string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		ts, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return ts, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// WriteAll replaces the file with the mapping, rows sorted by title then
// aliyah number.
func (b *CSVBackend) WriteAll(m map[Key]Record) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create progress dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeCSV(tmp, m); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close progress file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("rename progress file: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, m map[Key]Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, k := range sortedKeys(m) {
		rec := m[k]
		date := ""
		if rec.DateCompleted != nil {
			date = rec.DateCompleted.UTC().Format(time.RFC3339)
		}
		if err := cw.Write([]string{k.Title, strconv.Itoa(k.Number), strconv.FormatBool(rec.IsComplete), date}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write progress file: %w", err)
	}
	return nil
}

func sortedKeys(m map[Key]Record) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		if c := cmp.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return keys
}

// Close is a no-op; the file is not held open between calls.
func (b *CSVBackend) Close() error { return nil }
