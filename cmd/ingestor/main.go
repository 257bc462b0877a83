package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"bank_reviews/internal/adapters/gplay"
	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/app"
	"bank_reviews/internal/shared"
	mysqlrepo "bank_reviews/internal/storage/mysql"
)

func main() {
	var (
		orgsFlag  = flag.String("orgs", "", "comma-separated organization codes (default: all configured)")
		countFlag = flag.Int("count", 0, "target reviews per organization (default: REVIEWS_PER_ORG)")
		outFlag   = flag.String("out", "data/processed/reviews_with_sentiment.csv", "CSV artifact path; empty disables export")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	registry := app.NewRegistry(cfg.Organizations)
	codes := registry.Codes()
	if *orgsFlag != "" {
		codes = strings.Split(*orgsFlag, ",")
		for i := range codes {
			codes[i] = strings.TrimSpace(codes[i])
		}
	}
	target := cfg.TargetPerOrg
	if *countFlag > 0 {
		target = *countFlag
	}

	log.Info().
		Strs("orgs", codes).
		Int("target", target).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := gplay.New(cfg.PlayBase, 2)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Play client")
	}
	fetcher := app.NewFetcher(client, cfg.ScrapeLang, cfg.ScrapeGeo,
		cfg.PageCap, cfg.MaxRetries, cfg.RetryDelay, cfg.PageDelay)
	svc := app.NewIngestionService(registry, fetcher, repo, client, cfg.ScrapeLang, cfg.ScrapeGeo)

	summary := svc.Run(ctx, codes, target, cfg.Workers)

	for _, o := range summary.Orgs {
		ev := log.Info()
		if o.FetchErr != "" {
			ev = log.Warn().Str("error", o.FetchErr)
		}
		ev.Str("org", o.Code).
			Int("fetched", o.Fetched).
			Int("rejected", o.Rejected).
			Int("deduped", o.Deduped).
			Int("persisted", o.Persisted).
			Int("failed", o.Failed).
			Msg("run summary")
	}

	if *outFlag != "" {
		if err := exportCSV(ctx, repo, codes, target, *outFlag); err != nil {
			log.Error().Err(err).Str("path", *outFlag).Msg("csv export failed")
		}
	}

	if !summary.Succeeded() {
		log.Error().Msg("no organization persisted any reviews")
		os.Exit(1)
	}
	log.Info().Msg("ingestion completed")
}

func exportCSV(ctx context.Context, repo *mysqlrepo.Repo, codes []string, perOrgLimit int, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := app.ExportCSV(ctx, repo, codes, perOrgLimit, f)
	if err != nil {
		return err
	}
	log.Info().Int("rows", n).Str("path", path).Msg("csv artifact written")
	return nil
}
