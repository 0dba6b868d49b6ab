package tracker

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dgallion1/torahtrack/internal/progress"
	"github.com/dgallion1/torahtrack/internal/torah"
)

// Dataset supplies the read-only readings snapshot.
type Dataset interface {
	Load() ([]torah.Reading, error)
}

// Progress is the completion store.
type Progress interface {
	Load() (map[progress.Key]progress.Record, error)
	MarkComplete(title string, number int) error
	MarkIncomplete(title string, number int) error
}

// AliyahView is an aliyah joined with its completion state.
type AliyahView struct {
	torah.Aliyah
	IsComplete    bool       `json:"is_complete"`
	DateCompleted *time.Time `json:"date_completed"`
}

// ReadingView is a reading whose aliyot carry completion state.
type ReadingView struct {
	torah.Reading
	Aliyot []AliyahView `json:"aliyot"`
}

// Service joins the dataset with reading progress.
type Service struct {
	dataset  Dataset
	progress Progress
	log      *slog.Logger
}

func NewService(dataset Dataset, prog Progress, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{dataset: dataset, progress: prog, log: log}
}

// GetAll returns every reading in canonical order with progress merged in.
func (s *Service) GetAll() ([]ReadingView, error) {
	readings, recs, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]ReadingView, 0, len(readings))
	for _, r := range readings {
		out = append(out, merge(r, recs))
	}
	return out, nil
}

// GetOne returns a single reading by exact title.
func (s *Service) GetOne(title string) (ReadingView, error) {
	readings, recs, err := s.load()
	if err != nil {
		return ReadingView{}, err
	}
	for _, r := range readings {
		if r.Title == title {
			return merge(r, recs), nil
		}
	}
	return ReadingView{}, &NotFoundError{Title: title}
}

// SetAliyahStatus marks an aliyah complete or incomplete. The title does not
// have to be present in the current dataset.
func (s *Service) SetAliyahStatus(title string, number int, complete bool) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if number < 1 || number > torah.AliyotPerReading {
		return &ValidationError{Field: "aliyah_number", Message: fmt.Sprintf("must be between 1 and %d", torah.AliyotPerReading)}
	}
	if complete {
		return s.progress.MarkComplete(title, number)
	}
	return s.progress.MarkIncomplete(title, number)
}

func (s *Service) load() ([]torah.Reading, map[progress.Key]progress.Record, error) {
	readings, err := s.dataset.Load()
	if err != nil {
		s.log.Error("dataset load failed", "error", err)
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}
	recs, err := s.progress.Load()
	if err != nil {
		s.log.Error("progress load failed", "error", err)
		return nil, nil, fmt.Errorf("load progress: %w", err)
	}
	return readings, recs, nil
}

func merge(r torah.Reading, recs map[progress.Key]progress.Record) ReadingView {
	v := ReadingView{Reading: r, Aliyot: make([]AliyahView, 0, len(r.Aliyot))}
	for _, a := range r.Aliyot {
		av := AliyahView{Aliyah: a}
		if rec, ok := recs[progress.Key{Title: r.Title, Number: a.Number}]; ok {
			av.IsComplete = rec.IsComplete
			av.DateCompleted = rec.DateCompleted
		}
		v.Aliyot = append(v.Aliyot, av)
	}
	return v
}

// Counts totals aliyot, verses and words.
type Counts struct {
	Aliyot int `json:"aliyot"`
	Verses int `json:"verses"`
	Words  int `json:"words"`
}

// Percentages are completed/total ratios rounded to one decimal.
type Percentages struct {
	Aliyot float64 `json:"aliyot"`
	Verses float64 `json:"verses"`
	Words  float64 `json:"words"`
}

// BookStats is the breakdown for one book.
type BookStats struct {
	Book       torah.Book  `json:"book"`
	Readings   int         `json:"readings"`
	Total      Counts      `json:"total"`
	Completed  Counts      `json:"completed"`
	Percentage Percentages `json:"percentage"`
}

// Stats summarizes reading progress.
type Stats struct {
	Total      Counts      `json:"total"`
	Completed  Counts      `json:"completed"`
	Percentage Percentages `json:"percentage"`
	ByBook     []BookStats `json:"by_book"`
}

// GetStats aggregates totals and completed counts over the whole dataset and
// per book.
func (s *Service) GetStats() (Stats, error) {
	views, err := s.GetAll()
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	books := make(map[torah.Book]*BookStats, len(torah.Books))
	st.ByBook = make([]BookStats, len(torah.Books))
	for i, b := range torah.Books {
		st.ByBook[i].Book = b
		books[b] = &st.ByBook[i]
	}

	for _, v := range views {
		bs := books[v.Book]
		if bs != nil {
			bs.Readings++
		}
		for _, a := range v.Aliyot {
			add(&st.Total, a.Aliyah)
			if bs != nil {
				add(&bs.Total, a.Aliyah)
			}
			if a.IsComplete {
				add(&st.Completed, a.Aliyah)
				if bs != nil {
					add(&bs.Completed, a.Aliyah)
				}
			}
		}
	}

	st.Percentage = percentages(st.Completed, st.Total)
	for i := range st.ByBook {
		st.ByBook[i].Percentage = percentages(st.ByBook[i].Completed, st.ByBook[i].Total)
	}
	return st, nil
}

func add(c *Counts, a torah.Aliyah) {
	c.Aliyot++
	c.Verses += a.VerseCount
	c.Words += a.WordCount
}

func percentages(done, total Counts) Percentages {
	return Percentages{
		Aliyot: percent(done.Aliyot, total.Aliyot),
		Verses: percent(done.Verses, total.Verses),
		Words:  percent(done.Words, total.Words),
	}
}

func percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*1000) / 10
}
