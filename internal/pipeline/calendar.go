package pipeline

import (
	"context"
	"log/slog"
	"slices"

	"github.com/dgallion1/torahtrack/internal/hebcal"
	"github.com/dgallion1/torahtrack/internal/parser"
	"github.com/dgallion1/torahtrack/internal/torah"
)

// CalendarSource returns one Gregorian year of calendar items.
type CalendarSource interface {
	Year(ctx context.Context, year int) ([]hebcal.Item, error)
}

// CalendarResult is the fetcher output: readings in canonical order and the
// canonical titles no year reported.
type CalendarResult struct {
	Readings []torah.Reading
	Missing  []string
}

// FetchCalendarReadings collects the canonical weekly readings across years.
// Years are visited in ascending order and the first occurrence of a title
// wins. Combined and non-canonical titles are dropped.
func FetchCalendarReadings(ctx context.Context, src CalendarSource, years []int, report *Report, log *slog.Logger) CalendarResult {
	sorted := slices.Clone(years)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	found := make(map[string]torah.Reading)
	for _, year := range sorted {
		if ctx.Err() != nil {
			break
		}
		items, err := src.Year(ctx, year)
		if err != nil {
			log.Warn("calendar year fetch failed", "year", year, "error", err)
			report.Warn(KindFetch, "", 0, "calendar year %d: %v", year, err)
			continue
		}

		added := 0
		for _, item := range items {
			if !item.IsWeeklyReading() {
				continue
			}
			title := item.Title
			if torah.Combined[title] || !torah.IsCanonical(title) {
				continue
			}
			if _, seen := found[title]; seen {
				continue
			}

			var ranges []numberedRange
			for n := 1; n <= torah.AliyotPerReading; n++ {
				if raw, ok := item.Leyning.Aliyah(n); ok {
					ranges = append(ranges, numberedRange{number: n, raw: raw})
				}
			}
			aliyot := parseAliyot(title, ranges, report, log)
			if len(aliyot) == 0 {
				log.Warn("no usable aliyot", "title", title, "year", year)
				report.Warn(KindStructural, title, 0, "no usable aliyot in %d", year)
				continue
			}

			hebrew := item.Hebrew
			if hebrew == "" {
				hebrew = title
			}
			portion, _ := item.Leyning.String("torah")
			found[title] = newReading(title, hebrew, item.Date, portion, aliyot)
			added++
		}
		log.Info("calendar year processed", "year", year, "items", len(items), "new_readings", added, "total", len(found))
	}

	ordered, missing := torah.OrderedFrom(found)
	for _, title := range missing {
		log.Warn("reading not found in calendar data", "title", title)
	}
	for _, r := range ordered {
		if !r.Complete() {
			report.Warn(KindStructural, r.Title, 0, "only %d of %d aliyot recovered", len(r.Aliyot), torah.AliyotPerReading)
		}
	}
	return CalendarResult{Readings: ordered, Missing: missing}
}

type numberedRange struct {
	number int
	raw    string
}

// parseAliyot turns raw leyning strings into aliyot. Entries that fail to
// parse, name a different book than the first aliyah, or start before the
// previous aliyah ends are skipped with a warning.
func parseAliyot(title string, ranges []numberedRange, report *Report, log *slog.Logger) []torah.Aliyah {
	aliyot := make([]torah.Aliyah, 0, len(ranges))
	for _, nr := range ranges {
		vr, err := parser.ParseVerseRange(nr.raw)
		if err == nil {
			err = vr.Validate()
		}
		if err != nil {
			log.Warn("skipping aliyah", "title", title, "aliyah", nr.number, "verses", nr.raw, "error", err)
			report.Warn(KindParse, title, nr.number, "%v", err)
			continue
		}
		if len(aliyot) > 0 {
			prev := aliyot[len(aliyot)-1].Parsed
			if vr.Book != prev.Book {
				log.Warn("skipping aliyah from another book", "title", title, "aliyah", nr.number, "book", vr.Book)
				report.Warn(KindStructural, title, nr.number, "book %s differs from %s", vr.Book, prev.Book)
				continue
			}
			if vr.Start().Compare(prev.End()) < 0 {
				log.Warn("skipping overlapping aliyah", "title", title, "aliyah", nr.number, "verses", nr.raw)
				report.Warn(KindStructural, title, nr.number, "%s overlaps %s", vr, prev)
				continue
			}
		}
		aliyot = append(aliyot, torah.Aliyah{
			Number: nr.number,
			Verses: nr.raw,
			Parsed: vr,
		})
	}
	return aliyot
}

func newReading(title, hebrew, date, portion string, aliyot []torah.Aliyah) torah.Reading {
	first := aliyot[0].Parsed
	return torah.Reading{
		Title:        title,
		HebrewName:   hebrew,
		Date:         date,
		TorahPortion: portion,
		Book:         first.Book,
		BookOrder:    first.Book.Order(),
		StartChapter: first.StartChapter,
		Aliyot:       aliyot,
	}
}
