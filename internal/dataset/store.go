package dataset

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/dgallion1/torahtrack/internal/torah"
)

// SchemaError reports a dataset file that could not be decoded or failed
// validation.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset %s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Store persists the readings snapshot as a JSON array, xz-compressed when the
// path ends in ".xz". Loads are cached until Invalidate.
type Store struct {
	path string

	mu       sync.Mutex
	cache    []torah.Reading
	loaded   bool
	checksum string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the dataset file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) compressed() bool {
	return strings.HasSuffix(s.path, ".xz")
}

// Exists reports whether the dataset file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load returns the readings, reading the file on first use. A missing file
// yields an empty dataset and is not cached, so a dataset built later is
// picked up. The returned slice is shared and must not be modified.
func (s *Store) Load() ([]torah.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.cache, nil
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []torah.Reading{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	readings, err := s.decode(raw)
	if err != nil {
		return nil, &SchemaError{Path: s.path, Err: err}
	}
	if err := torah.ValidateDataset(readings); err != nil {
		return nil, &SchemaError{Path: s.path, Err: err}
	}

	s.cache = readings
	s.checksum = sum(raw)
	s.loaded = true
	return s.cache, nil
}

// Save validates and writes readings, replacing the file atomically.
func (s *Store) Save(readings []torah.Reading) error {
	if err := torah.ValidateDataset(readings); err != nil {
		return fmt.Errorf("validate dataset: %w", err)
	}

	data, err := json.MarshalIndent(readings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if s.compressed() {
		if data, err = compress(data); err != nil {
			return fmt.Errorf("compress dataset: %w", err)
		}
	}

	if err := writeAtomic(s.path, data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = readings
	s.checksum = sum(data)
	s.loaded = true
	return nil
}

// Checksum returns the BLAKE3 hex digest of the dataset file as stored on
// disk, or "" when there is no dataset.
func (s *Store) Checksum() (string, error) {
	if _, err := s.Load(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checksum, nil
}

// Invalidate drops the cached dataset so the next Load rereads the file.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.checksum = ""
	s.loaded = false
}

func (s *Store) decode(raw []byte) ([]torah.Reading, error) {
	var r io.Reader = bytes.NewReader(raw)
	if s.compressed() {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		r = xr
	}
	var readings []torah.Reading
	if err := json.NewDecoder(r).Decode(&readings); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if readings == nil {
		readings = []torah.Reading{}
	}
	return readings, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sum(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename dataset: %w", err)
	}
	return nil
}
