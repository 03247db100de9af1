package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fxradar/internal/artifact"
	"fxradar/internal/backfill"
	"fxradar/internal/config"
	"fxradar/internal/execproc"
	"fxradar/internal/guard"
	"fxradar/internal/logger"
	"fxradar/internal/materialize"
	"fxradar/internal/models"
	"fxradar/internal/pipeline"
	"fxradar/internal/search"
	"fxradar/internal/sentiment"
)

func main() {
	log := logger.New("pipeline")

	cfg, err := config.LoadPipeline()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	dateFlag := flag.String("date", "", "target date (YYYY-MM-DD); default today in the reference timezone")
	flag.Parse()

	date, err := resolveDate(*dateFlag, cfg.Location())
	if err != nil {
		// Pre-flight: a malformed date never starts a run.
		log.Error("invalid date", slog.Any("err", err))
		os.Exit(1)
	}

	store := artifact.NewStore(cfg.DataDir, cfg.Category)
	g := guard.New(store, log, cfg.FXPair)
	engine := backfill.New(store, g, log)

	var idx *search.Client
	if cfg.IndexEnabled {
		idx, err = search.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			log.Error("init search index", slog.Any("err", err))
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runner := pipeline.NewRunner(log, stageTable(log, cfg, store, g, engine, idx, date))

	run, err := runner.Execute(ctx, date)
	if err != nil {
		log.Error("pipeline aborted", slog.String("run_id", run.ID), slog.Any("cause", err))
		os.Exit(1)
	}

	for _, st := range run.Stages {
		if st.Status == pipeline.StatusWarn {
			log.Warn("stage finished degraded", slog.String("stage", st.Name), slog.String("cause", st.Cause))
		}
	}
	log.Info("pipeline done", slog.String("run_id", run.ID), slog.String("date", date))
}

// resolveDate validates an explicit date or falls back to today in the
// reference timezone.
func resolveDate(raw string, loc *time.Location) (string, error) {
	if raw == "" {
		return time.Now().In(loc).Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", fmt.Errorf("date must be YYYY-MM-DD, got %q", raw)
	}
	return raw, nil
}

// stageTable is the single declarative description of a pipeline run.
func stageTable(log *slog.Logger, cfg *config.Pipeline, store *artifact.Store, g *guard.Guard, engine *backfill.Engine, idx *search.Client, date string) []pipeline.Stage {
	return []pipeline.Stage{
		{
			Name:        "fetch",
			Criticality: pipeline.Optional,
			Action: func(ctx context.Context) error {
				if len(cfg.FetchCommand) == 0 {
					log.Info("fetch command not configured, skipping")
					return nil
				}
				res, err := execproc.Local{}.Run(ctx, cfg.FetchCommand[0], cfg.FetchCommand[1:]...)
				log.Info("fetcher finished",
					slog.Int("exit_code", res.ExitCode),
					slog.Duration("took", res.Duration),
				)
				if err != nil {
					return fmt.Errorf("fetcher: %w (stderr: %s)", err, truncate(res.Stderr, 300))
				}
				return nil
			},
		},
		{
			Name:        "materialize",
			Criticality: pipeline.Critical,
			Action: func(ctx context.Context) error {
				raw, err := store.ReadRaw(date)
				if err != nil {
					return err
				}
				doc, err := materialize.Materialize(raw, date)
				if err != nil {
					// Prior canonical output, if any, stays untouched.
					return err
				}
				return artifact.PublishJSON(store.DatedPath(artifact.FamilyNews, date), doc)
			},
		},
		{
			Name:        "score",
			Criticality: pipeline.Critical,
			Action: func(ctx context.Context) error {
				var news models.NewsDocument
				if err := artifact.ReadJSON(store.DatedPath(artifact.FamilyNews, date), &news); err != nil {
					return err
				}
				sent := sentiment.Score(news)
				return artifact.PublishJSON(store.DatedPath(artifact.FamilySentiment, date), sent)
			},
		},
		{
			Name:        "reconcile",
			Criticality: pipeline.Optional,
			Action: func(ctx context.Context) error {
				outcomes := g.EnsureAll(date)
				failed := 0
				for _, o := range outcomes {
					if o.Err != nil {
						failed++
					}
				}
				if failed == len(outcomes) {
					return errors.New("every family failed reconciliation")
				}
				return nil
			},
		},
		{
			Name:        "index",
			Criticality: pipeline.Optional,
			Action: func(ctx context.Context) error {
				if idx == nil {
					log.Info("search indexing disabled, skipping")
					return nil
				}
				var news models.NewsDocument
				if err := artifact.ReadJSON(store.DatedPath(artifact.FamilyNews, date), &news); err != nil {
					return err
				}
				n, err := idx.IndexArticles(ctx, news)
				if err != nil {
					return err
				}
				log.Info("articles indexed", slog.Int("count", n), slog.String("date", date))
				return nil
			},
		},
		{
			Name:        "timeseries",
			Criticality: pipeline.Optional,
			Action: func(ctx context.Context) error {
				return engine.RebuildTimeseries()
			},
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
