// Command builder fetches the weekly reading calendar and verse texts and
// writes the readings dataset.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/dgallion1/torahtrack/internal/config"
	"github.com/dgallion1/torahtrack/internal/dataset"
	"github.com/dgallion1/torahtrack/internal/fetch"
	"github.com/dgallion1/torahtrack/internal/hebcal"
	"github.com/dgallion1/torahtrack/internal/logging"
	"github.com/dgallion1/torahtrack/internal/pipeline"
	"github.com/dgallion1/torahtrack/internal/sefaria"
	"github.com/dgallion1/torahtrack/internal/torah"
)

// CLI flags override the environment configuration when set.
type CLI struct {
	Dataset   string `name:"dataset" short:"d" help:"Dataset file (.json or .json.xz)" type:"path"`
	LogLevel  string `name:"log-level" help:"debug, info, warn or error"`
	LogFormat string `name:"log-format" help:"json or text"`

	Build    BuildCmd    `cmd:"" default:"withargs" help:"Fetch upstream data and write the dataset"`
	Validate ValidateCmd `cmd:"" help:"Check an existing dataset file"`
}

// runContext carries the resolved configuration into commands.
type runContext struct {
	cfg config.Config
	log *slog.Logger
}

type BuildCmd struct {
	From    int           `name:"from" help:"First calendar year"`
	To      int           `name:"to" help:"Last calendar year"`
	Delay   time.Duration `name:"delay" help:"Pause after every upstream request" default:"-1ns"`
	Retries int           `name:"retries" help:"Retries for throttled or failed requests" default:"-1"`
	Report  string        `name:"report" help:"Markdown build report path" type:"path"`
}

func (c *BuildCmd) Run(rc *runContext) error {
	cfg := rc.cfg
	if c.From != 0 {
		cfg.FromYear = c.From
	}
	if c.To != 0 {
		cfg.ToYear = c.To
	}
	if c.Delay >= 0 {
		cfg.RequestDelay = c.Delay
	}
	if c.Retries >= 0 {
		cfg.FetchRetries = c.Retries
	}
	if c.Report != "" {
		cfg.ReportPath = c.Report
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := fetch.Options{
		Timeout:    cfg.HTTPTimeout,
		Delay:      cfg.RequestDelay,
		MaxRetries: cfg.FetchRetries,
	}
	cal := hebcal.NewClient(cfg.HebcalURL, opts, rc.log)
	defer cal.Close()
	text := sefaria.NewClient(cfg.SefariaURL, opts, rc.log)
	defer text.Close()

	store := dataset.NewStore(cfg.DatasetPath)
	b := pipeline.NewBuilder(cal, text, store, rc.log)

	rc.log.Info("building dataset", "from", cfg.FromYear, "to", cfg.ToYear, "dataset", cfg.DatasetPath)
	report, err := b.Run(ctx, cfg.Years())
	if report != nil && cfg.ReportPath != "" {
		if werr := writeReport(cfg.ReportPath, report.Markdown()); werr != nil {
			rc.log.Error("write report failed", "path", cfg.ReportPath, "error", werr)
		} else {
			rc.log.Info("report written", "path", cfg.ReportPath)
		}
	}
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}

	fmt.Printf("Wrote %d readings (%d aliyot, %d words) to %s\n",
		report.Totals.Readings, report.Totals.Aliyot, report.Totals.Words, cfg.DatasetPath)
	if n := len(report.Warnings()); n > 0 {
		fmt.Printf("%d warnings, see %s\n", n, cfg.ReportPath)
	}
	return nil
}

type ValidateCmd struct{}

func (c *ValidateCmd) Run(rc *runContext) error {
	store := dataset.NewStore(rc.cfg.DatasetPath)
	if !store.Exists() {
		return fmt.Errorf("dataset %s does not exist", rc.cfg.DatasetPath)
	}
	readings, err := store.Load()
	if err != nil {
		return err
	}
	sum, err := store.Checksum()
	if err != nil {
		return err
	}

	aliyot := 0
	for _, r := range readings {
		aliyot += len(r.Aliyot)
		if !r.Complete() {
			fmt.Printf("  %s: %d of %d aliyot\n", r.Title, len(r.Aliyot), torah.AliyotPerReading)
		}
	}
	fmt.Printf("%s: %d of %d readings, %d aliyot, blake3 %s\n",
		rc.cfg.DatasetPath, len(readings), len(torah.Canonical), aliyot, sum)
	return nil
}

func writeReport(path, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(body), 0o644)
}

func main() {
	godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("builder"),
		kong.Description("Build the Torah readings dataset"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cfg := config.Load()
	if cli.Dataset != "" {
		cfg.DatasetPath = cli.Dataset
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.LogFormat = cli.LogFormat
	}

	err := kctx.Run(&runContext{cfg: cfg, log: logging.New(cfg.LogLevel, cfg.LogFormat)})
	kctx.FatalIfErrorf(err)
}
