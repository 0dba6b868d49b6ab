package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/torahtrack/internal/fetch"
	"github.com/dgallion1/torahtrack/internal/torah"
)

// WarningKind classifies a non-fatal problem found during a build.
type WarningKind string

const (
	KindParse      WarningKind = "parse"
	KindFetch      WarningKind = "fetch"
	KindStructural WarningKind = "structural"
)

// Phase is the stage a build run is in.
type Phase string

const (
	PhaseCalendar  Phase = "calendar"
	PhaseAugment   Phase = "augment"
	PhaseEnrich    Phase = "enrich"
	PhasePersist   Phase = "persist"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// Warning is one recorded non-fatal outcome.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Title   string      `json:"title,omitempty"`
	Aliyah  int         `json:"aliyah,omitempty"`
	Message string      `json:"message"`
}

// Totals aggregates the built dataset.
type Totals struct {
	Readings int `json:"readings"`
	Aliyot   int `json:"aliyot"`
	Verses   int `json:"verses"`
	Words    int `json:"words"`
}

// Report is the outcome of one build run. It is safe for concurrent use.
type Report struct {
	mu sync.Mutex

	RunID      string    `json:"run_id"`
	Phase      Phase     `json:"phase"`
	Years      []int     `json:"years"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Totals   Totals                         `json:"totals"`
	ByBook   map[torah.Book]int             `json:"by_book"`
	Missing  []string                       `json:"missing"`
	Upstream map[string]fetch.StatsSnapshot `json:"upstream"`

	DatasetPath string `json:"dataset_path,omitempty"`
	Checksum    string `json:"checksum,omitempty"`

	warnings []Warning
}

func NewReport(runID string, years []int) *Report {
	return &Report{
		RunID:     runID,
		Phase:     PhaseCalendar,
		Years:     append([]int(nil), years...),
		StartedAt: time.Now(),
		ByBook:    make(map[torah.Book]int),
		Upstream:  make(map[string]fetch.StatsSnapshot),
	}
}

// SetPhase advances the run to phase.
func (r *Report) SetPhase(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phase = p
}

// CurrentPhase returns the phase the run is in.
func (r *Report) CurrentPhase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Phase
}

// Warn records a warning.
func (r *Report) Warn(kind WarningKind, title string, aliyah int, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, Warning{
		Kind:    kind,
		Title:   title,
		Aliyah:  aliyah,
		Message: fmt.Sprintf(format, args...),
	})
}

// Warnings returns a copy of the recorded warnings, in order.
func (r *Report) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Count returns the number of warnings of one kind.
func (r *Report) Count(kind WarningKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, w := range r.warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Summarize fills totals and per-book counts from the final dataset.
func (r *Report) Summarize(readings []torah.Reading, missing []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Totals = Totals{Readings: len(readings)}
	r.ByBook = make(map[torah.Book]int)
	for _, rd := range readings {
		r.ByBook[rd.Book]++
		for _, a := range rd.Aliyot {
			r.Totals.Aliyot++
			r.Totals.Verses += a.VerseCount
			r.Totals.Words += a.WordCount
		}
	}
	r.Missing = append([]string(nil), missing...)
}

// SetUpstream records latency statistics for one service.
func (r *Report) SetUpstream(service string, snap fetch.StatsSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Upstream[service] = snap
}

// Finish stamps the end time and the final phase.
func (r *Report) Finish(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phase = p
	r.FinishedAt = time.Now()
}

// SetDataset records where the dataset was written and its checksum.
func (r *Report) SetDataset(path, checksum string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DatasetPath = path
	r.Checksum = checksum
}

// Markdown renders the report for humans.
func (r *Report) Markdown() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "# Dataset build %s\n\n", r.RunID)
	if len(r.Years) > 0 {
		fmt.Fprintf(&b, "Calendar years %d-%d. ", r.Years[0], r.Years[len(r.Years)-1])
	}
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Finished (%s) %s in %s.", r.Phase, r.FinishedAt.Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	b.WriteString("\n\n## Totals\n\n")
	b.WriteString("| Readings | Aliyot | Verses | Words |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", r.Totals.Readings, r.Totals.Aliyot, r.Totals.Verses, r.Totals.Words)

	b.WriteString("## Readings by book\n\n")
	for _, book := range torah.Books {
		fmt.Fprintf(&b, "- %s: %d\n", book, r.ByBook[book])
	}

	if r.Checksum != "" {
		fmt.Fprintf(&b, "\nDataset `%s`, BLAKE3 `%s`.\n", r.DatasetPath, r.Checksum)
	}

	if len(r.Upstream) > 0 {
		b.WriteString("\n## Upstream calls\n\n")
		b.WriteString("| Service | Calls | Failures | p50 ms | p95 ms | max ms |\n|---|---|---|---|---|---|\n")
		services := make([]string, 0, len(r.Upstream))
		for s := range r.Upstream {
			services = append(services, s)
		}
		sort.Strings(services)
		for _, s := range services {
			snap := r.Upstream[s]
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d |\n", s, snap.Count, snap.Failures, snap.P50Ms, snap.P95Ms, snap.MaxMs)
		}
	}

	if len(r.Missing) > 0 {
		b.WriteString("\n## Missing readings\n\n")
		for _, title := range r.Missing {
			fmt.Fprintf(&b, "- %s\n", title)
		}
	}

	b.WriteString("\n## Warnings\n\n")
	if len(r.warnings) == 0 {
		b.WriteString("None.\n")
		return b.String()
	}
	for _, w := range r.warnings {
		switch {
		case w.Title != "" && w.Aliyah > 0:
			fmt.Fprintf(&b, "- **%s** %s, aliyah %d: %s\n", w.Kind, w.Title, w.Aliyah, w.Message)
		case w.Title != "":
			fmt.Fprintf(&b, "- **%s** %s: %s\n", w.Kind, w.Title, w.Message)
		default:
			fmt.Fprintf(&b, "- **%s** %s\n", w.Kind, w.Message)
		}
	}
	return b.String()
}
