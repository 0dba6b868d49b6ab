package progress

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[min(i, len(ts)-1)]
		i++
		return t
	}
}

func newCSVStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "progress.csv")
	return NewStore(NewCSVBackend(path), nil), path
}

func TestMarkCompleteIdempotent(t *testing.T) {
	s, _ := newCSVStore(t)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	s.now = fixedClock(t1, t2)

	if err := s.MarkComplete("Parashat Noach", 3); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkComplete("Parashat Noach", 3); err != nil {
		t.Fatal(err)
	}

	m, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	rec := m[Key{"Parashat Noach", 3}]
	if !rec.IsComplete || rec.DateCompleted == nil || !rec.DateCompleted.Equal(t1) {
		t.Errorf("expected first timestamp to be kept, got %+v", rec)
	}
}

func TestMarkIncomplete(t *testing.T) {
	s, path := newCSVStore(t)
	s.now = fixedClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))

	if err := s.MarkComplete("Parashat Bo", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkIncomplete("Parashat Bo", 1); err != nil {
		t.Fatal(err)
	}
	m, _ := s.Load()
	rec, ok := m[Key{"Parashat Bo", 1}]
	if !ok || rec.IsComplete || rec.DateCompleted != nil {
		t.Errorf("expected an incomplete record with no date, got %+v (present=%v)", rec, ok)
	}

	if err := s.MarkComplete("Parashat Bo", 1); err != nil {
		t.Fatal(err)
	}
	m, _ = s.Load()
	if got := m[Key{"Parashat Bo", 1}].DateCompleted; got == nil || got.Month() != time.April {
		t.Errorf("expected a fresh timestamp after re-completing, got %v", got)
	}

	info, _ := os.Stat(path)
	if err := s.MarkIncomplete("Parashat Yitro", 2); err != nil {
		t.Fatal(err)
	}
	m, _ = s.Load()
	if _, ok := m[Key{"Parashat Yitro", 2}]; ok {
		t.Error("unmarking an unknown aliyah must not create a record")
	}
	after, _ := os.Stat(path)
	if !after.ModTime().Equal(info.ModTime()) {
		t.Error("unmarking an unknown aliyah must not rewrite the file")
	}
}

func TestLoadReturnsCopy(t *testing.T) {
	s, _ := newCSVStore(t)
	if err := s.MarkComplete("Parashat Bo", 1); err != nil {
		t.Fatal(err)
	}
	m, _ := s.Load()
	delete(m, Key{"Parashat Bo", 1})

	again, _ := s.Load()
	if len(again) != 1 {
		t.Error("mutating the returned map must not affect the store")
	}
}

type failingBackend struct {
	data map[Key]Record
	err  error
}

func (f *failingBackend) ReadAll() (map[Key]Record, error) { return f.data, nil }
func (f *failingBackend) WriteAll(map[Key]Record) error    { return f.err }
func (f *failingBackend) Close() error                     { return nil }

func TestCacheUntouchedOnWriteFailure(t *testing.T) {
	b := &failingBackend{data: map[Key]Record{}, err: errors.New("disk full")}
	s := NewStore(b, nil)

	if err := s.MarkComplete("Parashat Bo", 1); err == nil {
		t.Fatal("expected write error")
	}
	m, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 0 {
		t.Errorf("cache should not change when the write fails, got %v", m)
	}
}

func TestCSVFileFormat(t *testing.T) {
	s, path := newCSVStore(t)
	s.now = fixedClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	for _, k := range []Key{{"Parashat Noach", 2}, {"Parashat Bo", 7}, {"Parashat Noach", 1}} {
		if err := s.MarkComplete(k.Title, k.Number); err != nil {
			t.Fatal(err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"reading_title,aliyah_number,is_complete,date_completed",
		"Parashat Bo,7,true,2024-03-01T10:00:00Z",
		"Parashat Noach,1,true,2024-03-01T10:00:00Z",
		"Parashat Noach,2,true,2024-03-01T10:00:00Z",
		"",
	}, "\n")
	if string(raw) != want {
		t.Errorf("unexpected file:\n%s\nwant:\n%s", raw, want)
	}
}

func TestCSVCreatesHeaderOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "progress.csv")
	m, err := NewCSVBackend(path).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty mapping, got %v", m)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "reading_title,aliyah_number,is_complete,date_completed\n" {
		t.Errorf("expected header-only file, got %q", raw)
	}
}

func TestCSVLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.csv")
	legacy := "parsha_name,aliyah_number,is_complete,date_completed\n" +
		"Parashat Vayera,1,True,2023-11-04T09:15:30.123456\n" +
		"Parashat Vayera,2,False,\n"
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewCSVBackend(path).ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := m[Key{"Parashat Vayera", 1}]
	if !first.IsComplete || first.DateCompleted == nil || first.DateCompleted.Year() != 2023 {
		t.Errorf("unexpected first record: %+v", first)
	}
	second, ok := m[Key{"Parashat Vayera", 2}]
	if !ok || second.IsComplete || second.DateCompleted != nil {
		t.Errorf("unexpected second record: %+v", second)
	}
}

func TestCSVRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"no title column": "name,aliyah_number,is_complete\nx,1,true\n",
		"bad number":      "reading_title,aliyah_number,is_complete,date_completed\nx,one,true,\n",
		"bad bool":        "reading_title,aliyah_number,is_complete,date_completed\nx,1,maybe,\n",
		"bad date":        "reading_title,aliyah_number,is_complete,date_completed\nx,1,true,yesterday\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := readCSV(strings.NewReader(body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCSVRoundTripThroughFreshStore(t *testing.T) {
	s, path := newCSVStore(t)
	ts := time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)
	s.now = fixedClock(ts)

	titles := []string{"Parashat Bo ", " Parashat Noach", "Parashat Lech-Lecha", `Parashat "Quoted", Title`}
	for _, title := range titles {
		if err := s.MarkComplete(title, 1); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.MarkComplete("Parashat Bo", 2); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkIncomplete("Parashat Bo", 2); err != nil {
		t.Fatal(err)
	}
	want, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}

	got, err := NewStore(NewCSVBackend(path), nil).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records after reload, got %d: %v", len(want), len(got), got)
	}
	for k, w := range want {
		g, ok := got[k]
		if !ok {
			t.Errorf("key %q/%d lost on reload", k.Title, k.Number)
			continue
		}
		if g.IsComplete != w.IsComplete || (g.DateCompleted == nil) != (w.DateCompleted == nil) {
			t.Errorf("key %q/%d: got %+v, want %+v", k.Title, k.Number, g, w)
			continue
		}
		if w.DateCompleted != nil && !g.DateCompleted.Equal(*w.DateCompleted) {
			t.Errorf("key %q/%d: date %v, want %v", k.Title, k.Number, g.DateCompleted, w.DateCompleted)
		}
	}
	if _, ok := got[Key{"Parashat Bo", 1}]; ok {
		t.Error("padded title reloaded as the trimmed one")
	}
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	s, err := Open("sqlite", path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.now = fixedClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	if err := s.MarkComplete("Parashat Bo", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkComplete("Parashat Bo", 2); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkIncomplete("Parashat Bo", 2); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open("sqlite", path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	m, err := reopened.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 records, got %d", len(m))
	}
	first := m[Key{"Parashat Bo", 1}]
	if !first.IsComplete || first.DateCompleted == nil || !first.DateCompleted.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected record: %+v", first)
	}
	if m[Key{"Parashat Bo", 2}].IsComplete {
		t.Error("aliyah 2 should be incomplete")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", "x", nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}
