package main

import (
	"encoding/json"
	"flag"
	"time"

	"github.com/joho/godotenv"

	"PriceScraper/internal/app"
	"PriceScraper/internal/logger"
	"PriceScraper/internal/models"
	"PriceScraper/internal/retailer"
	"PriceScraper/internal/storage"
	"PriceScraper/pkg/config"
)

func main() {
	// Credentials (POSTGRES_USER, AWS keys) may live in a local .env file.
	_ = godotenv.Load()
	log := logger.Get()

	configPath := flag.String("config", "", "path to a YAML config file describing jobs and storage")

	retailerTag := flag.String("retailer", "", "retailer tag for a single scrape (e.g. AMZ, BBY)")
	url := flag.String("url", "", "listing page URL to scrape")
	brand := flag.String("brand", "", "brand the listing page belongs to")
	category := flag.String("category", "", "category path for the listing page")
	timeout := flag.Int("timeout", 30, "page wait timeout in seconds")
	maxPagination := flag.Int("max-pagination", 20, "maximum number of pagination steps")
	proxy := flag.String("proxy", "", "optional proxy server address")
	headless := flag.Bool("headless", true, "run the browser headless")
	storageConfig := flag.String("storage-config", "[]", "JSON array of storage sink configs")
	flag.Parse()

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot load config file")
		}
		app.New(cfg).Run()
		return
	}

	if *retailerTag == "" || *url == "" || *brand == "" || *category == "" {
		log.Fatal().Msg("either -config or all of -retailer, -url, -brand and -category must be given")
	}

	tag, err := models.ParseRetailer(*retailerTag)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid retailer")
	}

	var sinks []storage.Config
	if err := json.Unmarshal([]byte(*storageConfig), &sinks); err != nil {
		log.Fatal().Err(err).Msg("invalid storage config")
	}

	prices, metadata, err := retailer.ScrapeRun(tag, *url, retailer.Options{
		Brand:         *brand,
		Category:      *category,
		Timeout:       time.Duration(*timeout) * time.Second,
		MaxPagination: *maxPagination,
		Proxy:         *proxy,
		Headless:      *headless,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("scrape failed")
	}

	storage.SaveAll(sinks, prices, metadata)
	log.Info().Int("products", len(metadata)).Msg("done")
}
