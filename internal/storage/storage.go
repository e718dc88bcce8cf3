// Package storage persists completed scrape runs through pluggable sinks.
// Each sink accepts the run's output sequences; the core does not retry a
// failed sink.
package storage

import (
	"fmt"
	"io"

	"PriceScraper/internal/logger"
	"PriceScraper/internal/models"
)

var log = logger.For("storage")

// Storage is the sink contract: persist one run's price and metadata
// sequences. Retention and merge policy belong to the sink.
type Storage interface {
	Save(prices []models.ProductPrice, metadata []models.ProductMetadata) error
}

// Config selects a sink and carries its options.
type Config struct {
	Type    models.StorageType `yaml:"type" json:"storage_type"`
	Options map[string]string  `yaml:"options" json:"storage_options"`
}

// registry maps storage types to sink constructors. Unsupported types are
// rejected input.
var registry = map[models.StorageType]func(opts map[string]string) (Storage, error){
	models.StoragePostgres: func(opts map[string]string) (Storage, error) { return NewPostgres(opts) },
	models.StorageSQLite:   func(opts map[string]string) (Storage, error) { return NewSQLite(opts) },
	models.StorageS3:       func(opts map[string]string) (Storage, error) { return NewS3(opts) },
	models.StorageRedis:    func(opts map[string]string) (Storage, error) { return NewRedis(opts) },
}

// New builds the sink for the given config.
func New(cfg Config) (Storage, error) {
	typ, err := models.ParseStorageType(string(cfg.Type))
	if err != nil {
		return nil, err
	}
	return registry[typ](cfg.Options)
}

// SaveAll hands the run output to every configured sink. Sinks fail
// independently: a failure is logged and the remaining sinks still run.
func SaveAll(configs []Config, prices []models.ProductPrice, metadata []models.ProductMetadata) {
	for _, cfg := range configs {
		sink, err := New(cfg)
		if err != nil {
			log.Error().Err(err).Str("storage", string(cfg.Type)).Msg("cannot create storage sink")
			continue
		}
		if err := sink.Save(prices, metadata); err != nil {
			log.Error().Err(err).Str("storage", string(cfg.Type)).Msg("error on storing data")
		} else {
			log.Info().Str("storage", string(cfg.Type)).Msg("finished storing data")
		}
		if closer, ok := sink.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Warn().Err(err).Str("storage", string(cfg.Type)).Msg("error closing storage sink")
			}
		}
	}
}

func option(opts map[string]string, key, fallback string) string {
	if v, ok := opts[key]; ok && v != "" {
		return v
	}
	return fallback
}

func requiredOption(opts map[string]string, key string) (string, error) {
	v, ok := opts[key]
	if !ok || v == "" {
		return "", fmt.Errorf("missing required storage option: %s", key)
	}
	return v, nil
}
