package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/torahtrack/internal/parser"
	"github.com/dgallion1/torahtrack/internal/sefaria"
	"github.com/dgallion1/torahtrack/internal/torah"
)

// TextSource returns the Hebrew verses of one chapter slice.
type TextSource interface {
	Text(ctx context.Context, book string, chapter, startVerse, endVerse int) (sefaria.Passage, error)
}

// EnrichOutcome is the result of counting one verse range. Failures holds one
// error per sub-range that could not be fetched; the counts cover the rest.
// Collapsed lists multi-verse refs the service answered with a single verse.
type EnrichOutcome struct {
	WordCount  int
	VerseCount int
	Calls      int
	Failures   []error
	Collapsed  []string
}

// Enricher computes word and verse counts from the text source.
type Enricher struct {
	src TextSource
	log *slog.Logger
}

func NewEnricher(src TextSource, log *slog.Logger) *Enricher {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Enricher{src: src, log: log}
}

// Count fetches the text of vr chapter by chapter and sums the counts.
// A multi-chapter range is split into the tail of the first chapter, every
// full middle chapter, and the head of the last chapter.
func (e *Enricher) Count(ctx context.Context, vr torah.VerseRange) EnrichOutcome {
	var out EnrichOutcome
	book := string(vr.Book)

	if !vr.MultiChapter() {
		e.add(ctx, &out, book, vr.StartChapter, vr.StartVerse, vr.EndVerse)
		return out
	}

	e.add(ctx, &out, book, vr.StartChapter, vr.StartVerse, sefaria.ChapterEnd)
	for ch := vr.StartChapter + 1; ch < vr.EndChapter; ch++ {
		if ctx.Err() != nil {
			out.Failures = append(out.Failures, ctx.Err())
			return out
		}
		e.add(ctx, &out, book, ch, 1, sefaria.ChapterEnd)
	}
	e.add(ctx, &out, book, vr.EndChapter, 1, vr.EndVerse)
	return out
}

func (e *Enricher) add(ctx context.Context, out *EnrichOutcome, book string, chapter, sv, ev int) {
	out.Calls++
	p, err := e.src.Text(ctx, book, chapter, sv, ev)
	if err != nil {
		e.log.Warn("text fetch failed", "ref", sefaria.Ref(book, chapter, sv, ev), "error", err)
		out.Failures = append(out.Failures, err)
		return
	}
	if p.Single && sv != ev {
		ref := sefaria.Ref(book, chapter, sv, ev)
		e.log.Warn("range answered with a single verse", "ref", ref)
		out.Collapsed = append(out.Collapsed, ref)
	}
	for _, verse := range p.Hebrew {
		out.VerseCount++
		out.WordCount += parser.CountWords(verse)
	}
}
