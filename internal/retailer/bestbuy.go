package retailer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"PriceScraper/internal/browser"
	"PriceScraper/internal/models"
	"PriceScraper/utils"
)

const (
	bestBuyItemSelector          = `[class^="list-item"]`
	bestBuyFooterSelector        = `[class^="footer"]`
	bestBuyPagingListSelector    = `[class^="paging-list"]`
	bestBuyPageItemSelector      = `[class^="page-item"]`
	bestBuySKUModelSelector      = `[class^="sku-model"]`
	bestBuySKUTitleSelector      = `[class^="sku-title"]`
	bestBuyHeroPriceSelector     = `[class^="priceView-hero-price"]`
	bestBuyRegularPriceSelector  = `[class^="pricing-price__regular-price-content"]`
	bestBuyRatingsReviewSelector = `[class^="c-ratings-reviews"]`
)

var (
	bestBuySKURegex    = regexp.MustCompile(`SKU:\s*(\S+)`)
	bestBuyModelRegex  = regexp.MustCompile(`Model: ([^\n]+)`)
	bestBuyPriceRegex  = regexp.MustCompile(`\$\d{1,3}(?:,\d{3})*(?:\.\d{0,2})?`)
	bestBuyRatingRegex = regexp.MustCompile(`Rating (\d+(?:\.\d+)?) out of`)
	bestBuyReviewRegex = regexp.MustCompile(`with ([\d,]+) reviews`)
)

// BestBuy scrapes BestBuy product list view pages for product price information.
//
// Listings are split across separately-addressed pages, so products are
// located and assembled per page, and the controller navigates with a page
// query parameter between passes.
type BestBuy struct {
	Base
}

func (BestBuy) Retailer() models.Retailer { return models.RetailerBBY }

// Paginate reads the page-count indicator after the first load and walks
// pages 1..min(detected, maxPagination), assembling each page's listings
// before navigating on. A missing footer marker is logged and traversal
// continues rather than aborting.
func (b BestBuy) Paginate(page Page, url string, maxPagination int, locate LocateFunc, assemble AssembleFunc) error {
	if err := page.Navigate(url); err != nil {
		return err
	}
	if _, err := page.WaitUntilPresent(bestBuyFooterSelector); err != nil {
		log.Warn().Msg("did not find the footer element after the first load, moving on")
	}

	numPages := b.pageCount(page)
	pages := min(numPages, maxPagination)
	log.Info().Int("detected", numPages).Int("scraping", pages).Msg("found pages to scrape")

	for pageNum := 1; pageNum <= pages; pageNum++ {
		locateAndAssemble(locate, assemble)
		if pageNum == pages {
			break
		}
		if _, err := page.WaitUntilPresent(bestBuyFooterSelector); err != nil {
			log.Error().Msg("did not find the footer element, moving on")
		}
		log.Info().Int("page", pageNum+1).Int("total", numPages).Msg("now scraping page")
		if err := page.Navigate(fmt.Sprintf("%s?cp=%d", url, pageNum+1)); err != nil {
			return err
		}
	}
	return nil
}

// pageCount reads the last entry of the paging list. An absent or unparsable
// indicator means a single page.
func (BestBuy) pageCount(page Page) int {
	paging, err := page.Element(bestBuyPagingListSelector)
	if err != nil {
		log.Warn().Msg("could not extract the pagination section, assuming one page for product")
		return 1
	}
	items, err := paging.Elements(bestBuyPageItemSelector)
	if err != nil || len(items) == 0 {
		log.Warn().Msg("could not extract the pagination items, assuming one page for product")
		return 1
	}
	text, err := items[len(items)-1].Text()
	if err != nil {
		log.Warn().Msg("could not read the last pagination item, assuming one page for product")
		return 1
	}
	numPages, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || numPages < 1 {
		log.Warn().Str("text", text).Msg("could not parse the page count, assuming one page for product")
		return 1
	}
	return numPages
}

func (BestBuy) ProductElements(page Page) ([]browser.Element, error) {
	return page.Elements(bestBuyItemSelector)
}

// ProductID extracts the SKU from the sku-model description block.
func (BestBuy) ProductID(el browser.Element) *string {
	description, err := bestBuyText(el, bestBuySKUModelSelector, "sku")
	if err != nil {
		return nil
	}
	match := bestBuySKURegex.FindStringSubmatch(description)
	if match == nil {
		log.Warn().Str("text", description).Msg("sku could not be parsed from description, skipping item")
		return nil
	}
	return &match[1]
}

func (BestBuy) Title(el browser.Element) *string {
	title, err := bestBuyText(el, bestBuySKUTitleSelector, "title")
	if err != nil || title == "" {
		return nil
	}
	return &title
}

func (BestBuy) BuyPrice(el browser.Element) *float64 {
	return bestBuyPrice(el, bestBuyHeroPriceSelector, "buy price")
}

func (BestBuy) OriginalPrice(el browser.Element) *float64 {
	return bestBuyPrice(el, bestBuyRegularPriceSelector, "original price")
}

// bestBuyPrice matches a dollar-formatted price inside the sub-element text
// and parses it with currency and thousands separators stripped.
func bestBuyPrice(el browser.Element, selector, field string) *float64 {
	text, err := bestBuyText(el, selector, field)
	if err != nil {
		return nil
	}
	match := bestBuyPriceRegex.FindString(text)
	if match == "" {
		log.Warn().Str("field", field).Str("text", text).Msg("price could not be extracted, assuming null")
		return nil
	}
	price, ok := utils.ParsePrice(match)
	if !ok {
		log.Warn().Str("field", field).Str("text", match).Msg("cannot convert price to float, assuming null")
		return nil
	}
	return &price
}

// Rating extracts the float rating from the combined ratings-reviews text,
// e.g. "Rating 4.6 out of 5 stars with 1,234 reviews".
func (BestBuy) Rating(el browser.Element) *float64 {
	text, err := bestBuyText(el, bestBuyRatingsReviewSelector, "rating")
	if err != nil {
		return nil
	}
	match := bestBuyRatingRegex.FindStringSubmatch(text)
	if match == nil {
		log.Warn().Str("text", text).Msg("rating could not be extracted, assuming null")
		return nil
	}
	rating, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		log.Warn().Str("text", match[1]).Msg("cannot convert rating to float, assuming null")
		return nil
	}
	return &rating
}

func (BestBuy) ReviewCount(el browser.Element) *int {
	text, err := bestBuyText(el, bestBuyRatingsReviewSelector, "review count")
	if err != nil {
		return nil
	}
	match := bestBuyReviewRegex.FindStringSubmatch(text)
	if match == nil {
		log.Warn().Str("text", text).Msg("review count could not be extracted, assuming null")
		return nil
	}
	count, ok := utils.ParseCount(match[1])
	if !ok {
		log.Warn().Str("text", match[1]).Msg("cannot convert review count, assuming null")
		return nil
	}
	return &count
}

// AdditionalAttributes captures the model number when the description block
// carries one.
func (BestBuy) AdditionalAttributes(el browser.Element) models.JSONMap {
	description, err := bestBuyText(el, bestBuySKUModelSelector, "model")
	if err != nil {
		return nil
	}
	match := bestBuyModelRegex.FindStringSubmatch(description)
	if match == nil {
		log.Warn().Str("text", description).Msg("model could not be parsed from description, assuming null")
		return nil
	}
	return models.JSONMap{"model": strings.TrimSpace(match[1])}
}

func bestBuyText(el browser.Element, selector, field string) (string, error) {
	sub, err := el.Element(selector)
	if err != nil {
		log.Warn().Str("field", field).Msg("element not found, assuming null")
		return "", err
	}
	text, err := sub.Text()
	if err != nil {
		log.Warn().Str("field", field).Err(err).Msg("cannot read element text, assuming null")
		return "", err
	}
	return text, nil
}
