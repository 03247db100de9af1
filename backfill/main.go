package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"fxradar/internal/artifact"
	"fxradar/internal/backfill"
	"fxradar/internal/config"
	"fxradar/internal/guard"
	"fxradar/internal/logger"
)

func main() {
	log := logger.New("backfill")

	cfg, err := config.LoadBackfill()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	startFlag := flag.String("start", "", "range start (YYYY-MM-DD), required")
	endFlag := flag.String("end", "", "range end (YYYY-MM-DD); default today in the reference timezone")
	scanOnly := flag.Bool("scan-only", false, "classify the range without recovering anything")
	flag.Parse()

	if *startFlag == "" {
		log.Error("missing required -start flag")
		os.Exit(1)
	}
	end := *endFlag
	if end == "" {
		end = time.Now().In(cfg.Location()).Format("2006-01-02")
	}

	store := artifact.NewStore(cfg.DataDir, cfg.Category)
	g := guard.New(store, log, cfg.FXPair)
	engine := backfill.New(store, g, log)

	if *scanOnly {
		records, err := engine.Scan(*startFlag, end)
		if err != nil {
			log.Error("scan failed", slog.Any("err", err))
			os.Exit(1)
		}
		for _, r := range records {
			log.Info("classified",
				slog.String("date", r.Date),
				slog.String("state", string(r.State())),
				slog.Bool("actionable", r.Actionable()),
			)
		}
		return
	}

	report, err := engine.Run(*startFlag, end)
	if err != nil {
		log.Error("backfill failed", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("backfill finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("recovered", report.Recovered),
		slog.Int("unrecoverable", report.Unrecoverable),
		slog.Int("failed", report.Failed),
	)
	if report.Failed > 0 {
		os.Exit(1)
	}
}
