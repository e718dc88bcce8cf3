package utils

import (
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"

	"PriceScraper/internal/logger"
)

// GetOptimalWorkerCount determines the number of scrape workers based on
// config and system resources. Each worker drives its own browser instance,
// so the count stays conservative.
func GetOptimalWorkerCount(configValue string) int {
	log := logger.For("utils")

	if manualWorkers, err := strconv.Atoi(configValue); err == nil && manualWorkers > 0 {
		log.Info().Int("workers", manualWorkers).Msg("using manually configured number of workers")
		return manualWorkers
	}

	if configValue != "auto" {
		log.Warn().Str("workers", configValue).Msg("invalid workers value, defaulting to auto")
	}

	// Logical cores: scraping is mostly I/O bound.
	cpuCores, err := cpu.Counts(true)
	if err != nil {
		log.Warn().Msg("could not detect CPU cores, falling back to 2 workers")
		return 2
	}

	// Half of the available cores keeps browser instances from starving the host.
	optimalCount := cpuCores / 2
	if optimalCount < 1 {
		optimalCount = 1
	}
	if optimalCount > 16 {
		optimalCount = 16
	}

	log.Info().Int("cores", cpuCores).Int("workers", optimalCount).Msg("automatically sized worker pool")
	return optimalCount
}
