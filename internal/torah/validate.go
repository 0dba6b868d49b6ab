package torah

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid torah data")

// ValidationError describes the first schema violation found.
type ValidationError struct {
	Title   string
	Aliyah  int
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Title != "" && e.Aliyah > 0:
		return fmt.Sprintf("%s aliyah %d: %s", e.Title, e.Aliyah, e.Message)
	case e.Title != "":
		return fmt.Sprintf("%s: %s", e.Title, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validate checks the range is ordered and names a Torah book.
func (v VerseRange) Validate() error {
	if !v.Book.Valid() {
		return fmt.Errorf("unknown book %q", v.Book)
	}
	if v.StartChapter < 1 || v.StartVerse < 1 || v.EndChapter < 1 || v.EndVerse < 1 {
		return fmt.Errorf("non-positive position in %s", v)
	}
	if v.Start().Compare(v.End()) > 0 {
		return fmt.Errorf("range %s ends before it starts", v)
	}
	return nil
}

// Validate checks a single reading.
func (r Reading) Validate() error {
	if !IsCanonical(r.Title) {
		return &ValidationError{Title: r.Title, Message: "not a canonical reading"}
	}
	if !r.Book.Valid() {
		return &ValidationError{Title: r.Title, Message: fmt.Sprintf("unknown book %q", r.Book)}
	}
	if r.BookOrder != r.Book.Order() {
		return &ValidationError{Title: r.Title, Message: fmt.Sprintf("book_order %d does not match %s", r.BookOrder, r.Book)}
	}
	if len(r.Aliyot) > AliyotPerReading {
		return &ValidationError{Title: r.Title, Message: fmt.Sprintf("%d aliyot, at most %d allowed", len(r.Aliyot), AliyotPerReading)}
	}

	var prev *Aliyah
	for i := range r.Aliyot {
		a := &r.Aliyot[i]
		if a.Number < 1 || a.Number > AliyotPerReading {
			return &ValidationError{Title: r.Title, Aliyah: a.Number, Message: "number out of range"}
		}
		if err := a.Parsed.Validate(); err != nil {
			return &ValidationError{Title: r.Title, Aliyah: a.Number, Message: err.Error()}
		}
		if a.Parsed.Book != r.Book {
			return &ValidationError{Title: r.Title, Aliyah: a.Number, Message: fmt.Sprintf("book %s differs from reading book %s", a.Parsed.Book, r.Book)}
		}
		if a.WordCount < 0 || a.VerseCount < 0 {
			return &ValidationError{Title: r.Title, Aliyah: a.Number, Message: "negative count"}
		}
		if prev != nil {
			if a.Number <= prev.Number {
				return &ValidationError{Title: r.Title, Aliyah: a.Number, Message: "aliyot out of order"}
			}
			if a.Parsed.Start().Compare(prev.Parsed.End()) < 0 {
				return &ValidationError{Title: r.Title, Aliyah: a.Number, Message: "starts before the previous aliyah ends"}
			}
		}
		prev = a
	}
	return nil
}

// ValidateDataset checks every reading plus the dataset-wide invariants:
// unique titles, at most 54 readings, canonical order.
func ValidateDataset(readings []Reading) error {
	if len(readings) > len(Canonical) {
		return &ValidationError{Message: fmt.Sprintf("%d readings, at most %d allowed", len(readings), len(Canonical))}
	}
	last := -1
	for _, r := range readings {
		if err := r.Validate(); err != nil {
			return err
		}
		idx, _ := CanonicalIndex(r.Title)
		if idx == last {
			return &ValidationError{Title: r.Title, Message: "duplicate reading"}
		}
		if idx < last {
			return &ValidationError{Title: r.Title, Message: "out of canonical order"}
		}
		last = idx
	}
	return nil
}
