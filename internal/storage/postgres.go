package storage

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/lib/pq"

	"PriceScraper/internal/models"
)

// PostgresStorage stores scraped data in a transactional store for any real
// time needs, e.g. web serving. Metadata is merged by product id; price rows
// are append-only, one per run and date.
type PostgresStorage struct {
	db *sql.DB
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS product_metadata (
	product_id TEXT PRIMARY KEY,
	retailer TEXT NOT NULL,
	brand TEXT NOT NULL,
	category TEXT NOT NULL,
	title TEXT,
	additional_attributes JSONB
);
CREATE TABLE IF NOT EXISTS product_price (
	id VARCHAR(36) PRIMARY KEY,
	product_id TEXT NOT NULL REFERENCES product_metadata (product_id),
	date DATE NOT NULL,
	buy_price DOUBLE PRECISION,
	original_price DOUBLE PRECISION,
	coupon_value DOUBLE PRECISION,
	rating DOUBLE PRECISION,
	review_count INTEGER
);
CREATE INDEX IF NOT EXISTS idx_product_price_date_product_id ON product_price (date, product_id);
CREATE INDEX IF NOT EXISTS idx_product_price_product_id ON product_price (product_id);
CREATE INDEX IF NOT EXISTS idx_product_metadata_category ON product_metadata (category);
CREATE INDEX IF NOT EXISTS idx_product_metadata_brand ON product_metadata (brand);
`

// NewPostgres connects to the database and ensures the tables and read-path
// indexes exist. Credentials come from the POSTGRES_USER and
// POSTGRES_PASSWORD environment variables so they stay out of config files.
func NewPostgres(opts map[string]string) (*PostgresStorage, error) {
	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	if user == "" || password == "" {
		return nil, fmt.Errorf("POSTGRES_USER and POSTGRES_PASSWORD environment variables must be set")
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user,
		password,
		option(opts, "host", "postgres-postgresql"),
		option(opts, "port", "5432"),
		option(opts, "database", "postgres"),
		option(opts, "sslmode", "disable"),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	return &PostgresStorage{db: db}, nil
}

// Save merges metadata rows by product id and bulk-appends the price rows,
// all in one transaction rolled back on failure.
func (s *PostgresStorage) Save(prices []models.ProductPrice, metadata []models.ProductMetadata) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := s.mergeMetadata(tx, metadata); err != nil {
		tx.Rollback()
		return fmt.Errorf("cannot commit product metadata to the db: %w", err)
	}
	if err := s.copyPrices(tx, prices); err != nil {
		tx.Rollback()
		return fmt.Errorf("cannot commit product prices to the db: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Info().Int("products", len(metadata)).Msg("products are added to the database")
	return nil
}

func (s *PostgresStorage) mergeMetadata(tx *sql.Tx, metadata []models.ProductMetadata) error {
	stmt, err := tx.Prepare(`
		INSERT INTO product_metadata (product_id, retailer, brand, category, title, additional_attributes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id) DO UPDATE SET
			retailer = excluded.retailer,
			brand = excluded.brand,
			category = excluded.category,
			title = excluded.title,
			additional_attributes = excluded.additional_attributes
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, meta := range metadata {
		if _, err := stmt.Exec(
			meta.ProductID, string(meta.Retailer), meta.Brand, meta.Category,
			meta.Title, meta.AdditionalAttributes,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStorage) copyPrices(tx *sql.Tx, prices []models.ProductPrice) error {
	stmt, err := tx.Prepare(pq.CopyIn("product_price",
		"id", "product_id", "date", "buy_price", "original_price",
		"coupon_value", "rating", "review_count"))
	if err != nil {
		return err
	}

	for _, price := range prices {
		if _, err := stmt.Exec(
			price.ID, price.ProductID, price.Date,
			price.BuyPrice, price.OriginalPrice, price.CouponValue,
			price.Rating, price.ReviewCount,
		); err != nil {
			stmt.Close()
			return err
		}
	}
	// Flush the COPY buffer.
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return err
	}
	return stmt.Close()
}

// Close releases the connection pool.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
