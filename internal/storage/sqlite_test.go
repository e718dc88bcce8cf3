package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceScraper/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLite(map[string]string{
		"path": filepath.Join(t.TempDir(), "products.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRun(date time.Time) ([]models.ProductPrice, []models.ProductMetadata) {
	title := "Widget X"
	buyPrice := 19.99
	rating := 4.5
	reviews := 1234

	metadata := []models.ProductMetadata{{
		ProductID:            "AMZABC123",
		Retailer:             models.RetailerAMZ,
		Brand:                "acme",
		Category:             "electronics/widgets",
		Title:                &title,
		AdditionalAttributes: models.JSONMap{"model": "WX-100"},
	}}
	price := models.NewProductPrice("AMZABC123", date)
	price.BuyPrice = &buyPrice
	price.Rating = &rating
	price.ReviewCount = &reviews
	return []models.ProductPrice{price}, metadata
}

func TestSQLiteSaveAndQuery(t *testing.T) {
	store := newTestSQLite(t)
	date := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	prices, metadata := testRun(date)

	require.NoError(t, store.Save(prices, metadata))

	var metaCount, priceCount int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM product_metadata`).Scan(&metaCount))
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM product_price`).Scan(&priceCount))
	assert.Equal(t, 1, metaCount)
	assert.Equal(t, 1, priceCount)

	var storedDate string
	var buyPrice float64
	var couponValue *float64
	require.NoError(t, store.db.QueryRow(
		`SELECT date, buy_price, coupon_value FROM product_price WHERE product_id = ?`,
		"AMZABC123",
	).Scan(&storedDate, &buyPrice, &couponValue))
	assert.Equal(t, "2026-08-23", storedDate)
	assert.Equal(t, 19.99, buyPrice)
	assert.Nil(t, couponValue, "missing fields must land as NULL")
}

func TestSQLiteSaveUpsertsMetadata(t *testing.T) {
	store := newTestSQLite(t)
	date := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)

	prices, metadata := testRun(date)
	require.NoError(t, store.Save(prices, metadata))

	// A later run for the same product updates metadata and appends a price.
	newTitle := "Widget X (2026)"
	metadata[0].Title = &newTitle
	laterPrices, _ := testRun(date.AddDate(0, 0, 1))
	require.NoError(t, store.Save(laterPrices, metadata))

	var metaCount, priceCount int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM product_metadata`).Scan(&metaCount))
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM product_price`).Scan(&priceCount))
	assert.Equal(t, 1, metaCount, "metadata must merge by product id")
	assert.Equal(t, 2, priceCount, "price history must append")

	var title string
	require.NoError(t, store.db.QueryRow(
		`SELECT title FROM product_metadata WHERE product_id = ?`, "AMZABC123",
	).Scan(&title))
	assert.Equal(t, newTitle, title)
}
