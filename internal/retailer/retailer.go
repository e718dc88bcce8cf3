// Package retailer implements the per-retailer scraping pipeline: pagination
// policies, element location, field extraction, and product assembly.
package retailer

import (
	"fmt"
	"strings"
	"time"

	"PriceScraper/internal/browser"
	"PriceScraper/internal/logger"
	"PriceScraper/internal/models"
)

var log = logger.For("retailer")

// Page is the slice of the browser session that pagination policies and
// element locators drive.
type Page interface {
	Navigate(url string) error
	WaitUntilPresent(selector string) (browser.Element, error)
	Element(selector string) (browser.Element, error)
	Elements(selector string) ([]browser.Element, error)
}

// LocateFunc returns the product listing elements for the current page state.
type LocateFunc func() ([]browser.Element, error)

// AssembleFunc turns located elements into product records.
type AssembleFunc func(elements []browser.Element)

// Variant is the capability set a retailer implementation provides. Field
// extractors are pure with respect to the element state and never escalate:
// a lookup or parse failure is logged and becomes a nil value.
//
// ProductID is the one mandatory extractor; an element it returns nil for is
// skipped entirely. The remaining extractors have nil-returning defaults in
// Base that variants override per what their site exposes.
type Variant interface {
	// Retailer returns the tag prepended to raw site identifiers.
	Retailer() models.Retailer

	// ProductElements returns the ordered product listing elements for the
	// current page state. Deterministic for a fixed page state.
	ProductElements(page Page) ([]browser.Element, error)

	// Paginate drives page loads for url per the variant's policy, invoking
	// locate and assemble as listings become available. It iterates at most
	// maxPagination times and respects the session's wait timeout.
	Paginate(page Page, url string, maxPagination int, locate LocateFunc, assemble AssembleFunc) error

	ProductID(el browser.Element) *string
	Title(el browser.Element) *string
	BuyPrice(el browser.Element) *float64
	OriginalPrice(el browser.Element) *float64
	CouponValue(el browser.Element) *float64
	Rating(el browser.Element) *float64
	ReviewCount(el browser.Element) *int
	AdditionalAttributes(el browser.Element) models.JSONMap
}

// registry maps retailer tags to variant constructors. Unsupported tags are
// rejected input, no runtime lookup of implementations happens.
var registry = map[models.Retailer]func() Variant{
	models.RetailerAMZ: func() Variant { return Amazon{} },
	models.RetailerBBY: func() Variant { return BestBuy{} },
}

// Options configures one scrape run.
type Options struct {
	Brand         string
	Category      string
	Timeout       time.Duration
	MaxPagination int
	Proxy         string
	Headless      bool
}

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxPagination = 20
)

// Scraper is one scrape run for a single URL/brand/category combination,
// bound to its own browser session. The output sequences are append-only for
// the duration of the run.
type Scraper struct {
	variant       Variant
	session       *browser.Session
	page          Page
	brand         string
	category      string
	maxPagination int
	runDate       time.Time
	prices        []models.ProductPrice
	metadata      []models.ProductMetadata
}

// New builds the scraper for the given retailer tag and acquires a browser
// session. Callers must Close the scraper on every exit path.
func New(tag models.Retailer, opts Options) (*Scraper, error) {
	newVariant, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("unsupported retailer: %s", tag)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxPagination <= 0 {
		opts.MaxPagination = defaultMaxPagination
	}

	session, err := browser.NewSession(browser.Options{
		Timeout:  opts.Timeout,
		Proxy:    opts.Proxy,
		Headless: opts.Headless,
	})
	if err != nil {
		return nil, fmt.Errorf("create browser session: %w", err)
	}

	return &Scraper{
		variant:       newVariant(),
		session:       session,
		page:          session,
		brand:         strings.ToLower(opts.Brand),
		category:      strings.Trim(opts.Category, "/"),
		maxPagination: opts.MaxPagination,
		runDate:       time.Now(),
	}, nil
}

// Scrape paginates through the given URL and populates the run's price and
// metadata sequences. Extraction failures never abort the run.
func (s *Scraper) Scrape(url string) error {
	locate := func() ([]browser.Element, error) {
		return s.variant.ProductElements(s.page)
	}
	return s.variant.Paginate(s.page, url, s.maxPagination, locate, s.assemble)
}

// Prices returns the price observations collected so far, in scrape order.
func (s *Scraper) Prices() []models.ProductPrice {
	return s.prices
}

// Metadata returns the product metadata collected so far, in scrape order.
func (s *Scraper) Metadata() []models.ProductMetadata {
	return s.metadata
}

// Close releases the browser session.
func (s *Scraper) Close() {
	if s.session != nil {
		s.session.Close()
	}
}

// assemble runs the variant's extractors over each located element, in
// order, and appends one metadata/price pair per successful element. A
// failure while assembling one element skips that element only.
func (s *Scraper) assemble(elements []browser.Element) {
	for _, el := range elements {
		s.assembleOne(el)
	}
}

func (s *Scraper) assembleOne(el browser.Element) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("cause", r).
				Msg("failed to create row entries from the product information, skipping product")
		}
	}()

	rawID := s.variant.ProductID(el)
	if rawID == nil || *rawID == "" {
		log.Error().Msg("cannot fetch product id, skipping product")
		return
	}
	// Prepend the retailer tag to enforce cross-retailer uniqueness.
	productID := string(s.variant.Retailer()) + *rawID

	meta := models.ProductMetadata{
		ProductID:            productID,
		Retailer:             s.variant.Retailer(),
		Brand:                s.brand,
		Category:             s.category,
		Title:                s.variant.Title(el),
		AdditionalAttributes: s.variant.AdditionalAttributes(el),
	}
	price := models.NewProductPrice(productID, s.runDate)
	price.BuyPrice = s.variant.BuyPrice(el)
	price.OriginalPrice = s.variant.OriginalPrice(el)
	price.CouponValue = s.variant.CouponValue(el)
	price.Rating = s.variant.Rating(el)
	price.ReviewCount = s.variant.ReviewCount(el)

	// Metadata is always appended before its price record.
	s.metadata = append(s.metadata, meta)
	s.prices = append(s.prices, price)
	log.Info().Str("product_id", productID).Msg("scraped product")
}

// ScrapeRun is the single caller-facing entry point: it runs one scrape for
// a retailer/URL/brand/category combination inside its own browser session
// and returns the collected price and metadata sequences.
func ScrapeRun(tag models.Retailer, url string, opts Options) ([]models.ProductPrice, []models.ProductMetadata, error) {
	scraper, err := New(tag, opts)
	if err != nil {
		return nil, nil, err
	}
	defer scraper.Close()

	if err := scraper.Scrape(url); err != nil {
		return nil, nil, fmt.Errorf("scrape %s: %w", url, err)
	}
	log.Info().Int("products", len(scraper.Prices())).Msg("scrape run finished")
	return scraper.Prices(), scraper.Metadata(), nil
}
