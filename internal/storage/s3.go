package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/parquet-go/parquet-go"

	"PriceScraper/internal/models"
)

// S3Storage is a low cost analytical storage option: runs land as parquet
// files under a category/brand partition layout for future analysis and
// modeling. Metadata is merged against the existing partition object; price
// observations are written as a fresh time-sliced object per run.
type S3Storage struct {
	client s3Client
	bucket string
	prefix string
}

// s3Client is the slice of the S3 API the sink uses.
type s3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// metadataRow is the parquet layout of one product metadata record.
// AdditionalAttributes lands JSON-encoded, since its keys vary per retailer.
type metadataRow struct {
	ProductID            string  `parquet:"product_id"`
	Retailer             string  `parquet:"retailer"`
	Brand                string  `parquet:"brand"`
	Category             string  `parquet:"category"`
	Title                *string `parquet:"title,optional"`
	AdditionalAttributes *string `parquet:"additional_attributes,optional"`
}

// priceRow is the parquet layout of one price observation.
type priceRow struct {
	ID            string   `parquet:"id"`
	ProductID     string   `parquet:"product_id"`
	Date          string   `parquet:"date"`
	BuyPrice      *float64 `parquet:"buy_price,optional"`
	OriginalPrice *float64 `parquet:"original_price,optional"`
	CouponValue   *float64 `parquet:"coupon_value,optional"`
	Rating        *float64 `parquet:"rating,optional"`
	ReviewCount   *int64   `parquet:"review_count,optional"`
}

// NewS3 builds the sink from the "bucket_and_prefix" (e.g.
// "s3://bucket/scrapes") and "region" options. AWS credentials come from the
// default provider chain (environment, shared config, instance role).
func NewS3(opts map[string]string) (*S3Storage, error) {
	bucketAndPrefix, err := requiredOption(opts, "bucket_and_prefix")
	if err != nil {
		return nil, err
	}
	region, err := requiredOption(opts, "region")
	if err != nil {
		return nil, err
	}
	bucket, prefix, err := splitBucketAndPrefix(bucketAndPrefix)
	if err != nil {
		return nil, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Storage{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func splitBucketAndPrefix(s string) (bucket, prefix string, err error) {
	trimmed := strings.TrimPrefix(s, "s3://")
	if trimmed == s || trimmed == "" {
		return "", "", fmt.Errorf("bucket_and_prefix must look like s3://bucket/prefix, got %q", s)
	}
	parts := strings.SplitN(strings.Trim(trimmed, "/"), "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix, nil
}

// Save writes the run's metadata and price partitions. An empty run skips
// the save entirely.
func (s *S3Storage) Save(prices []models.ProductPrice, metadata []models.ProductMetadata) error {
	if len(metadata) == 0 || len(prices) == 0 {
		log.Warn().Msg("nothing to store, skipping save")
		return nil
	}

	category := metadata[0].Category
	brand := metadata[0].Brand
	retailer := metadata[0].Retailer
	date := prices[0].Date

	if err := s.saveMetadata(category, brand, metadata); err != nil {
		return err
	}
	return s.savePrices(category, brand, retailer, date, prices)
}

// saveMetadata merges the run's metadata into the existing partition object
// and rewrites it, skipping the write when nothing changed.
func (s *S3Storage) saveMetadata(category, brand string, metadata []models.ProductMetadata) error {
	key := metadataKey(s.prefix, category, brand)

	existing, err := s.readMetadata(key)
	if err != nil {
		log.Info().Str("key", key).Msg("no existing metadata for brand and category found, starting from scratch")
		existing = nil
	} else {
		log.Info().Int("rows", len(existing)).Msg("existing metadata loaded")
	}

	incoming := make([]metadataRow, 0, len(metadata))
	for _, meta := range metadata {
		incoming = append(incoming, toMetadataRow(meta))
	}

	merged, updated := mergeMetadataRows(existing, incoming)
	if updated == 0 {
		log.Info().Msg("no product metadata is found to be different from before, skipping storage write")
		return nil
	}

	if err := s.writeParquet(key, merged); err != nil {
		return fmt.Errorf("failed to store product metadata to s3: %w", err)
	}
	log.Info().Str("key", key).Int("updated", updated).Msg("stored product metadata")
	return nil
}

func (s *S3Storage) savePrices(category, brand string, retailer models.Retailer, date time.Time, prices []models.ProductPrice) error {
	key := pricesKey(s.prefix, category, brand, retailer, date)

	rows := make([]priceRow, 0, len(prices))
	for _, price := range prices {
		rows = append(rows, toPriceRow(price))
	}
	if err := s.writeParquet(key, rows); err != nil {
		return fmt.Errorf("failed to store product data to s3: %w", err)
	}
	log.Info().Str("key", key).Int("rows", len(rows)).Msg("product data is stored")
	return nil
}

// mergeMetadataRows inserts or updates incoming rows into existing ones by
// product id and returns the merged rows along with the number of rows that
// actually changed. The count is an explicit per-call result, never shared
// state across saves.
func mergeMetadataRows(existing, incoming []metadataRow) ([]metadataRow, int) {
	index := make(map[string]int, len(existing))
	merged := make([]metadataRow, len(existing))
	copy(merged, existing)
	for i, row := range merged {
		index[row.ProductID] = i
	}

	updated := 0
	for _, row := range incoming {
		if i, ok := index[row.ProductID]; ok {
			if !merged[i].equal(row) {
				merged[i] = row
				updated++
			}
			continue
		}
		index[row.ProductID] = len(merged)
		merged = append(merged, row)
		updated++
	}
	return merged, updated
}

// equal compares rows by value, so re-reading a row from parquet never
// counts as an update.
func (r metadataRow) equal(o metadataRow) bool {
	return r.ProductID == o.ProductID &&
		r.Retailer == o.Retailer &&
		r.Brand == o.Brand &&
		r.Category == o.Category &&
		equalStringPtr(r.Title, o.Title) &&
		equalStringPtr(r.AdditionalAttributes, o.AdditionalAttributes)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *S3Storage) readMetadata(key string) ([]metadataRow, error) {
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read metadata object: %w", err)
	}
	rows, err := parquet.Read[metadataRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse metadata parquet: %w", err)
	}
	return rows, nil
}

func (s *S3Storage) writeParquet(key string, rows interface{}) error {
	buf := new(bytes.Buffer)
	switch typed := rows.(type) {
	case []metadataRow:
		if err := writeRows(buf, typed); err != nil {
			return err
		}
	case []priceRow:
		if err := writeRows(buf, typed); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported parquet row type %T", rows)
	}

	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	return err
}

func writeRows[T any](buf *bytes.Buffer, rows []T) error {
	w := parquet.NewGenericWriter[T](buf)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return w.Close()
}

// metadataKey is the per category/brand metadata partition.
func metadataKey(prefix, category, brand string) string {
	return path.Join(prefix, category, brand, "metadata.parquet")
}

// pricesKey is the time-sliced price partition for one run.
func pricesKey(prefix, category, brand string, retailer models.Retailer, date time.Time) string {
	return path.Join(prefix, category, brand, "ts", date.Format("2006/01/02"), string(retailer)+".parquet")
}

func toMetadataRow(meta models.ProductMetadata) metadataRow {
	row := metadataRow{
		ProductID: meta.ProductID,
		Retailer:  string(meta.Retailer),
		Brand:     meta.Brand,
		Category:  meta.Category,
		Title:     meta.Title,
	}
	if meta.AdditionalAttributes != nil {
		if encoded, err := json.Marshal(meta.AdditionalAttributes); err == nil {
			attrs := string(encoded)
			row.AdditionalAttributes = &attrs
		}
	}
	return row
}

func toPriceRow(price models.ProductPrice) priceRow {
	row := priceRow{
		ID:            price.ID,
		ProductID:     price.ProductID,
		Date:          price.Date.Format("2006-01-02"),
		BuyPrice:      price.BuyPrice,
		OriginalPrice: price.OriginalPrice,
		CouponValue:   price.CouponValue,
		Rating:        price.Rating,
	}
	if price.ReviewCount != nil {
		count := int64(*price.ReviewCount)
		row.ReviewCount = &count
	}
	return row
}
