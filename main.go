package main

import (
	"fmt"
	"os"

	"suumo-watcher/config"
	"suumo-watcher/models"
	"suumo-watcher/scraper/browser"
	"suumo-watcher/scraper/suumo"
	"suumo-watcher/services"
	"suumo-watcher/storage"
	"suumo-watcher/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	logger.Info("=== suumo-watcher starting ===")
	logger.Info("Config — concurrency: %d | spacing: %dms | notify: %s/%s | threshold: %dm",
		cfg.MaxConcurrent, cfg.FetchDelayMs, cfg.NotifyMode, cfg.FilteredMode, cfg.DistanceThreshold)

	watchList, err := config.LoadWatchList(cfg.SearchesPath)
	if err != nil {
		logger.Error("Failed to load watch list: %v", err)
		os.Exit(1)
	}
	logger.Info("Watching %d search(es) from %s", len(watchList.Searches), cfg.SearchesPath)

	detector := services.NewChangeDetector(cfg.TitleSimilarity)
	store, err := storage.NewPostgresStore(cfg.DSN(), detector, logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer store.Close()

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	var fetcher services.Fetcher
	if cfg.UseBrowser {
		b := browser.New(cfg, logger)
		defer b.Close()
		fetcher = b
	} else {
		fetcher = suumo.New(cfg, logger)
	}

	crawler := services.NewCrawler(fetcher, store, logger)

	failed := 0
	for i, search := range watchList.Searches {
		logger.Info("--- Search %d/%d: %s", i+1, len(watchList.Searches), search.URL)

		result, err := crawler.Crawl(crawlParams(cfg, search))
		if err != nil && result == nil {
			logger.Error("Search %d failed: %v", i+1, err)
			failed++
			continue
		}
		if err != nil {
			// The crawl itself completed; only persistence misbehaved.
			logger.Error("Search %d persisted with errors: %v", i+1, err)
			failed++
		}

		deliverNotifications(logger, result)

		if err := csvWriter.ExportNew(result.Records); err != nil {
			logger.Error("CSV export failed: %v", err)
		}

		printSummary(result.Summary)
	}

	if failed > 0 {
		logger.Warn("%d of %d searches had errors", failed, len(watchList.Searches))
		os.Exit(1)
	}
}

func crawlParams(cfg *config.Config, search config.Search) services.CrawlParams {
	params := services.CrawlParams{
		URL:               search.URL,
		MaxLatest:         search.MaxLatest,
		NotifyMode:        services.NotifyMode(cfg.NotifyMode),
		FilteredMode:      services.FilteredMode(cfg.FilteredMode),
		DistanceThreshold: cfg.DistanceThreshold,
		MaxConcurrent:     cfg.MaxConcurrent,
		DelayMs:           cfg.FetchDelayMs,
	}
	if search.NotifyMode != "" {
		params.NotifyMode = services.NotifyMode(search.NotifyMode)
	}
	if search.FilteredMode != "" {
		params.FilteredMode = services.FilteredMode(search.FilteredMode)
	}
	if search.DistanceThreshold > 0 {
		params.DistanceThreshold = search.DistanceThreshold
	}
	return params
}

// deliverNotifications is the delivery collaborator's seam. Formatting and
// transport (webhooks, chat apps) live outside this binary; here each
// decision is just logged.
func deliverNotifications(logger *utils.Logger, result *models.CrawlResult) {
	for _, rec := range result.NewRecords() {
		if !rec.Notify.ShouldNotify {
			logger.Debug("[notify] Suppressed (%dm over threshold): %s",
				rec.Notify.DistanceFromThreshold, rec.Title)
			continue
		}
		mode := "normal"
		if rec.Notify.Silent {
			mode = "silent"
		}
		logger.Info("[notify] NEW (%s): %s — %s", mode, rec.Title, rec.Link)
	}
}

func printSummary(s models.CrawlSummary) {
	fmt.Printf("\n  %s\n", s.QueryDescription)
	fmt.Printf("  found %d | new %d | duplicates %d | notified %d | sources %d\n",
		s.TotalFound, s.NewCount, s.DuplicateCount, s.NotificationsSent, s.SourceCount)
	for _, src := range s.Sources {
		status := "ok"
		if !src.Success {
			status = "FAILED: " + src.Error
		}
		fmt.Printf("    - %s (%d listings) %s\n", src.URL, src.Listings, status)
	}
	fmt.Println()
}
