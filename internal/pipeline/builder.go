package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dgallion1/torahtrack/internal/fetch"
	"github.com/dgallion1/torahtrack/internal/torah"
)

// DatasetWriter persists a built dataset.
type DatasetWriter interface {
	Save(readings []torah.Reading) error
	Checksum() (string, error)
	Path() string
}

// statsSource is implemented by upstream clients that track call latency.
type statsSource interface {
	Stats() fetch.StatsSnapshot
}

// Builder runs the offline dataset build: calendar fetch, special-case
// augmentation, per-aliyah text enrichment and persistence.
type Builder struct {
	calendar CalendarSource
	text     TextSource
	enricher *Enricher
	store    DatasetWriter
	log      *slog.Logger
}

func NewBuilder(calendar CalendarSource, text TextSource, store DatasetWriter, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		calendar: calendar,
		text:     text,
		enricher: NewEnricher(text, log),
		store:    store,
		log:      log,
	}
}

// Run builds and saves the dataset for the given calendar years. Upstream
// failures become report warnings; only cancellation and persist failures
// are returned as errors.
func (b *Builder) Run(ctx context.Context, years []int) (*Report, error) {
	runID := uuid.NewString()
	log := b.log.With("run_id", runID)
	report := NewReport(runID, years)
	log.Info("dataset build started", "years", len(years))

	// Phase 1: calendar
	cal := FetchCalendarReadings(ctx, b.calendar, years, report, log)
	if err := ctx.Err(); err != nil {
		report.Finish(PhaseFailed)
		return report, err
	}

	// Phase 2: special readings
	report.SetPhase(PhaseAugment)
	byTitle := make(map[string]torah.Reading, len(cal.Readings)+1)
	for _, r := range cal.Readings {
		byTitle[r.Title] = r
	}
	AugmentSpecialReadings(byTitle, report, log)
	readings, missing := torah.OrderedFrom(byTitle)
	for _, title := range missing {
		report.Warn(KindStructural, title, 0, "reading missing from every calendar year")
	}

	// Phase 3: word and verse counts
	report.SetPhase(PhaseEnrich)
	for i := range readings {
		rd := &readings[i]
		for j := range rd.Aliyot {
			if err := ctx.Err(); err != nil {
				log.Warn("dataset build cancelled", "title", rd.Title)
				report.Finish(PhaseFailed)
				return report, err
			}
			a := &rd.Aliyot[j]
			out := b.enricher.Count(ctx, a.Parsed)
			a.WordCount = out.WordCount
			a.VerseCount = out.VerseCount
			for _, err := range out.Failures {
				report.Warn(KindFetch, rd.Title, a.Number, "%v", err)
			}
			for _, ref := range out.Collapsed {
				report.Warn(KindStructural, rd.Title, a.Number, "%s returned a single verse", ref)
			}
		}
		log.Info("reading enriched", "title", rd.Title, "progress", fmt.Sprintf("%d/%d", i+1, len(readings)))
	}
	b.collectStats(report)
	report.Summarize(readings, missing)

	// Phase 4: persist
	report.SetPhase(PhasePersist)
	if err := b.store.Save(readings); err != nil {
		log.Error("dataset save failed", "error", err)
		report.Finish(PhaseFailed)
		return report, fmt.Errorf("save dataset: %w", err)
	}
	sum, err := b.store.Checksum()
	if err != nil {
		log.Warn("dataset checksum failed", "error", err)
	}
	report.SetDataset(b.store.Path(), sum)
	report.Finish(PhaseCompleted)

	log.Info("dataset build complete",
		"readings", report.Totals.Readings,
		"aliyot", report.Totals.Aliyot,
		"words", report.Totals.Words,
		"fetch_warnings", report.Count(KindFetch),
		"parse_warnings", report.Count(KindParse),
		"structural_warnings", report.Count(KindStructural),
	)
	return report, nil
}

func (b *Builder) collectStats(report *Report) {
	if s, ok := b.calendar.(statsSource); ok {
		report.SetUpstream("hebcal", s.Stats())
	}
	if s, ok := b.text.(statsSource); ok {
		report.SetUpstream("sefaria", s.Stats())
	}
}
