package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure Go driver

	"PriceScraper/internal/models"
)

// SQLiteStorage is the embedded equivalent of the Postgres sink, useful for
// local runs and development.
type SQLiteStorage struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS product_metadata (
	"product_id" TEXT NOT NULL PRIMARY KEY,
	"retailer" TEXT NOT NULL,
	"brand" TEXT NOT NULL,
	"category" TEXT NOT NULL,
	"title" TEXT,
	"additional_attributes" TEXT
);
CREATE TABLE IF NOT EXISTS product_price (
	"id" TEXT NOT NULL PRIMARY KEY,
	"product_id" TEXT NOT NULL REFERENCES product_metadata (product_id),
	"date" TEXT NOT NULL,
	"buy_price" REAL,
	"original_price" REAL,
	"coupon_value" REAL,
	"rating" REAL,
	"review_count" INTEGER
);
CREATE INDEX IF NOT EXISTS idx_product_price_date_product_id ON product_price (date, product_id);
CREATE INDEX IF NOT EXISTS idx_product_metadata_brand ON product_metadata (brand);
`

// NewSQLite opens (or creates) the database file given by the "path" option
// and ensures the tables exist.
func NewSQLite(opts map[string]string) (*SQLiteStorage, error) {
	path := option(opts, "path", "products.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// Save upserts metadata by product id and appends the price rows.
func (s *SQLiteStorage) Save(prices []models.ProductPrice, metadata []models.ProductMetadata) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	metaStmt, err := tx.Prepare(`
		INSERT INTO product_metadata (product_id, retailer, brand, category, title, additional_attributes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (product_id) DO UPDATE SET
			brand = excluded.brand,
			category = excluded.category,
			title = excluded.title,
			additional_attributes = excluded.additional_attributes
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer metaStmt.Close()

	for _, meta := range metadata {
		if _, err := metaStmt.Exec(
			meta.ProductID, string(meta.Retailer), meta.Brand, meta.Category,
			meta.Title, meta.AdditionalAttributes,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("cannot commit product metadata to the db: %w", err)
		}
	}

	priceStmt, err := tx.Prepare(`
		INSERT INTO product_price (id, product_id, date, buy_price, original_price, coupon_value, rating, review_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer priceStmt.Close()

	for _, price := range prices {
		if _, err := priceStmt.Exec(
			price.ID, price.ProductID, price.Date.Format("2006-01-02"),
			price.BuyPrice, price.OriginalPrice, price.CouponValue,
			price.Rating, price.ReviewCount,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("cannot commit product prices to the db: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	log.Info().Int("products", len(metadata)).Msg("products are added to the database")
	return nil
}

// Close closes the database file.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
