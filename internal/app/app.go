// Package app orchestrates configured scrape jobs across a worker pool and
// hands the results to the configured storage sinks.
package app

import (
	"sync"
	"time"

	"PriceScraper/internal/logger"
	"PriceScraper/internal/models"
	"PriceScraper/internal/retailer"
	"PriceScraper/internal/storage"
	"PriceScraper/pkg/config"
	"PriceScraper/utils"
)

var log = logger.For("app")

// App runs the jobs described by a loaded configuration.
type App struct {
	cfg *config.Config
}

// New creates an application instance around a loaded configuration.
func New(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Run executes every configured job. Jobs are independent: each gets its own
// browser session, and a failed job is logged without stopping the rest.
func (a *App) Run() {
	numWorkers := utils.GetOptimalWorkerCount(a.cfg.Scraper.Workers)
	if numWorkers > len(a.cfg.Jobs) {
		numWorkers = len(a.cfg.Jobs)
	}
	log.Info().Int("jobs", len(a.cfg.Jobs)).Int("workers", numWorkers).Msg("starting scrape jobs")

	jobs := make(chan config.JobConfig, len(a.cfg.Jobs))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				a.runJob(job)
			}
		}()
	}

	for _, job := range a.cfg.Jobs {
		jobs <- job
	}
	close(jobs)
	wg.Wait()
	log.Info().Msg("all scrape jobs finished")
}

func (a *App) runJob(job config.JobConfig) {
	jobLog := log.With().
		Str("retailer", job.Retailer).
		Str("brand", job.Brand).
		Str("category", job.Category).
		Logger()

	tag, err := models.ParseRetailer(job.Retailer)
	if err != nil {
		jobLog.Error().Err(err).Msg("skipping job")
		return
	}

	prices, metadata, err := retailer.ScrapeRun(tag, job.URL, retailer.Options{
		Brand:         job.Brand,
		Category:      job.Category,
		Timeout:       time.Duration(a.cfg.Scraper.TimeoutSeconds) * time.Second,
		MaxPagination: a.cfg.Scraper.MaxPagination,
		Proxy:         a.cfg.Scraper.Proxy,
		Headless:      a.cfg.Scraper.Headless,
	})
	if err != nil {
		jobLog.Error().Err(err).Msg("scrape job failed")
		return
	}

	storage.SaveAll(a.cfg.Storage, prices, metadata)
	jobLog.Info().Int("products", len(metadata)).Msg("scrape job finished")
}
