package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Retailer identifies a supported retailer website.
type Retailer string

const (
	RetailerAMZ Retailer = "AMZ"
	RetailerBBY Retailer = "BBY"
)

var retailers = map[Retailer]bool{
	RetailerAMZ: true,
	RetailerBBY: true,
}

// ParseRetailer validates a retailer tag given by the user.
func ParseRetailer(name string) (Retailer, error) {
	tag := Retailer(strings.ToUpper(strings.TrimSpace(name)))
	if !retailers[tag] {
		return "", fmt.Errorf("no such retailer: %s. Supported retailers are: %s",
			name, supportedRetailers())
	}
	return tag, nil
}

func supportedRetailers() string {
	names := make([]string, 0, len(retailers))
	for tag := range retailers {
		names = append(names, string(tag))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// StorageType identifies a supported storage back-end.
type StorageType string

const (
	StoragePostgres StorageType = "POSTGRES"
	StorageSQLite   StorageType = "SQLITE"
	StorageS3       StorageType = "S3"
	StorageRedis    StorageType = "REDIS"
)

var storageTypes = map[StorageType]bool{
	StoragePostgres: true,
	StorageSQLite:   true,
	StorageS3:       true,
	StorageRedis:    true,
}

// ParseStorageType validates a storage type given by the user.
func ParseStorageType(name string) (StorageType, error) {
	t := StorageType(strings.ToUpper(strings.TrimSpace(name)))
	if !storageTypes[t] {
		return "", fmt.Errorf("no such storage type: %s. Supported storage types are: %s",
			name, supportedStorageTypes())
	}
	return t, nil
}

func supportedStorageTypes() string {
	names := make([]string, 0, len(storageTypes))
	for t := range storageTypes {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// JSONMap stores retailer-specific extras (e.g. model number) as JSON in SQL stores.
type JSONMap map[string]string

// Value implements driver.Valuer so a JSONMap can be written as a JSON column.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner to read a JSON column back into a JSONMap.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for JSONMap")
	}
	return json.Unmarshal(bytes, m)
}

// ProductMetadata contains the identity and slow-changing attributes of one product.
//
// ProductID is the identifier given by the retailer, prepended with the
// retailer tag for cross-retailer uniqueness. Category may be a nested path
// separated by slashes, e.g. "Electronics/Computers/Laptops". Title can be
// used to cross reference products from different retailers.
type ProductMetadata struct {
	ProductID            string   `db:"product_id" json:"product_id"`
	Retailer             Retailer `db:"retailer" json:"retailer"`
	Brand                string   `db:"brand" json:"brand"`
	Category             string   `db:"category" json:"category"`
	Title                *string  `db:"title" json:"title,omitempty"`
	AdditionalAttributes JSONMap  `db:"additional_attributes" json:"additional_attributes,omitempty"`
}

// ProductPrice is one observation of a product's commercial state at a given date.
type ProductPrice struct {
	ID            string    `db:"id" json:"id"`
	ProductID     string    `db:"product_id" json:"product_id"`
	Date          time.Time `db:"date" json:"date"`
	BuyPrice      *float64  `db:"buy_price" json:"buy_price,omitempty"`
	OriginalPrice *float64  `db:"original_price" json:"original_price,omitempty"`
	CouponValue   *float64  `db:"coupon_value" json:"coupon_value,omitempty"`
	Rating        *float64  `db:"rating" json:"rating,omitempty"`
	ReviewCount   *int      `db:"review_count" json:"review_count,omitempty"`
}

// NewProductPrice creates a price observation with a generated row id.
func NewProductPrice(productID string, date time.Time) ProductPrice {
	return ProductPrice{
		ID:        uuid.NewString(),
		ProductID: productID,
		Date:      date,
	}
}
