package parser

import (
	"errors"
	"testing"

	"github.com/dgallion1/torahtrack/internal/torah"
)

func TestParseVerseRange_Simple(t *testing.T) {
	vr, err := ParseVerseRange("Exodus 1:1-1:17")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := torah.VerseRange{
		Book:         torah.Exodus,
		StartChapter: 1,
		StartVerse:   1,
		EndChapter:   1,
		EndVerse:     17,
		Raw:          "Exodus 1:1-1:17",
	}
	if vr != want {
		t.Errorf("expected %+v, got %+v", want, vr)
	}
}

func TestParseVerseRange_StripsSuffixes(t *testing.T) {
	bare, err := ParseVerseRange("Genesis 6:9-11:32")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inputs := []string{
		"Genesis 6:9-11:32|Haftarah: Isaiah 54:1-55:5",
		"Genesis 6:9-11:32; Numbers 28:9-28:15",
		"Genesis 6:9-11:32, Genesis 12:1-12:3",
		"  Genesis 6:9-11:32  | trailing",
	}
	for _, in := range inputs {
		got, err := ParseVerseRange(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
			continue
		}
		if got != bare {
			t.Errorf("%q: expected %+v, got %+v", in, bare, got)
		}
	}
}

func TestParseVerseRange_MultiWordBook(t *testing.T) {
	vr, err := ParseVerseRange("Song of Songs 1:1-2:7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vr.Book != "Song of Songs" {
		t.Errorf("expected book %q, got %q", "Song of Songs", vr.Book)
	}
	if vr.StartChapter != 1 || vr.EndChapter != 2 || vr.EndVerse != 7 {
		t.Errorf("unexpected positions: %+v", vr)
	}
}

func TestParseVerseRange_Invalid(t *testing.T) {
	inputs := []string{
		"Exodus 1-17",
		"Exodus 1:1",
		"Exodus1:1-1:17",
		"1:1-1:17",
		"Exodus 1:1-1:17 extra",
		"",
		"|Genesis 1:1-1:5",
		"Exodus 99999999999999999999:1-1:2",
	}
	for _, in := range inputs {
		_, err := ParseVerseRange(in)
		if err == nil {
			t.Errorf("%q: expected error", in)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%q: expected *ParseError, got %T", in, err)
		}
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("%q: expected ErrInvalidRange in chain", in)
		}
	}
}

func TestMustParseVerseRange_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid literal")
		}
	}()
	MustParseVerseRange("not a range")
}
