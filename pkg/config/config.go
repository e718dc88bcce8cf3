// Package config loads the YAML run configuration: scraper behavior, the
// jobs to run and where their output goes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"PriceScraper/internal/storage"
)

// ScraperConfig holds general scraper settings shared by every job.
type ScraperConfig struct {
	Workers        string `yaml:"workers"`
	Headless       bool   `yaml:"headless"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxPagination  int    `yaml:"max_pagination"`
	Proxy          string `yaml:"proxy"`
}

// JobConfig describes one retailer listing page to scrape.
type JobConfig struct {
	Retailer string `yaml:"retailer"`
	URL      string `yaml:"url"`
	Brand    string `yaml:"brand"`
	Category string `yaml:"category"`
}

// Config is the complete structure of the config.yml file.
type Config struct {
	Scraper ScraperConfig    `yaml:"scraper"`
	Jobs    []JobConfig      `yaml:"jobs"`
	Storage []storage.Config `yaml:"storage"`
}

// Load reads and parses the config file, applying defaults for settings the
// file leaves out.
func Load(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Config{
		Scraper: ScraperConfig{
			Workers:        "auto",
			Headless:       true,
			TimeoutSeconds: 30,
			MaxPagination:  20,
		},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if len(cfg.Jobs) == 0 {
		return nil, fmt.Errorf("config file defines no jobs")
	}
	for i, job := range cfg.Jobs {
		if job.Retailer == "" || job.URL == "" || job.Brand == "" || job.Category == "" {
			return nil, fmt.Errorf("job %d is missing retailer, url, brand or category", i)
		}
	}
	return &cfg, nil
}
