package retailer

import (
	"regexp"
	"strings"

	"PriceScraper/internal/browser"
	"PriceScraper/internal/models"
	"PriceScraper/utils"
)

// Amazon brand-store grid pages use generated CSS class suffixes, so all
// selectors match on the stable class prefix.
const (
	amazonItemSelector        = `[class^="ProductGridItem__item__"]`
	amazonShowMoreSelector    = `[class*="ShowMoreButton__button__"]`
	amazonTitleSelector       = `[class^="Title__title__"]`
	amazonImageSelector       = `[class^="ProductGridItem__image__"]`
	amazonBuyPriceSelector    = `[class*="ProductGridItem__buyPrice__"]`
	amazonStrikePriceSelector = `[class*="StrikeThroughPrice__strikePrice__"]`
	amazonCouponSelector      = `[class*="Price__base__"]`
	amazonRatingSelector      = `[class^="Icon__icon__"]`
	amazonReviewCountSelector = `[class^="ProductGridItem__reviewCount"]`
)

// amazonIDRegex matches the product identifier following /dp/ in product URLs.
var amazonIDRegex = regexp.MustCompile(`/dp/([^/?]+)`)

// Amazon scrapes Amazon product grid view pages for product price information.
//
// Pagination is a reveal control: the "show more" button appends further
// listings to the same page, so products are located and assembled once,
// after the reveal loop ends.
type Amazon struct {
	Base
}

func (Amazon) Retailer() models.Retailer { return models.RetailerAMZ }

// Paginate clicks the show-more control until it stops appearing or the
// pagination cap is reached, then assembles the fully revealed grid.
func (Amazon) Paginate(page Page, url string, maxPagination int, locate LocateFunc, assemble AssembleFunc) error {
	if err := page.Navigate(url); err != nil {
		return err
	}

	for pageNum := 0; pageNum < maxPagination; pageNum++ {
		showMore, err := page.WaitUntilPresent(amazonShowMoreSelector)
		if err != nil {
			log.Warn().Msg("did not find the show more element, moving on")
			break
		}
		if err := showMore.Click(); err != nil {
			log.Warn().Err(err).Msg("could not click the show more element, moving on")
			break
		}
		log.Info().Int("page", pageNum+1).Msg("clicked on show more button")
	}

	locateAndAssemble(locate, assemble)
	return nil
}

func (Amazon) ProductElements(page Page) ([]browser.Element, error) {
	return page.Elements(amazonItemSelector)
}

// ProductID extracts the unique identifier given by the retailer, part of
// the product page URL.
func (Amazon) ProductID(el browser.Element) *string {
	title, err := el.Element(amazonTitleSelector)
	if err != nil {
		log.Warn().Msg("cannot find the title element for product id, skipping item")
		return nil
	}
	href, err := title.Attribute("href")
	if err != nil || href == "" {
		log.Warn().Msg("title element has no href for product id, skipping item")
		return nil
	}
	match := amazonIDRegex.FindStringSubmatch(href)
	if match == nil {
		log.Warn().Str("href", href).Msg("cannot match product id from href, skipping item")
		return nil
	}
	return &match[1]
}

// Title prefers the grid image's alt text, which carries the more complete
// product name, and falls back to the title span text.
func (Amazon) Title(el browser.Element) *string {
	title, err := el.Element(amazonTitleSelector)
	if err != nil {
		log.Warn().Msg("cannot find the title element, assuming null")
		return nil
	}
	if image, err := el.Element(amazonImageSelector); err == nil {
		if img, err := image.Element("img"); err == nil {
			if alt, err := img.Attribute("alt"); err == nil && alt != "" {
				return &alt
			}
		}
	}
	text, err := title.Text()
	if err != nil {
		log.Warn().Err(err).Msg("cannot read title text, assuming null")
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}

func (Amazon) BuyPrice(el browser.Element) *float64 {
	return amazonPrice(el, amazonBuyPriceSelector, "buy price")
}

func (Amazon) OriginalPrice(el browser.Element) *float64 {
	return amazonPrice(el, amazonStrikePriceSelector, "original price")
}

func (Amazon) CouponValue(el browser.Element) *float64 {
	return amazonPrice(el, amazonCouponSelector, "coupon value")
}

// amazonPrice reads the aria-label of a price sub-element and parses it.
// Any miss along the way yields nil, never an error.
func amazonPrice(el browser.Element, selector, field string) *float64 {
	sub, err := el.Element(selector)
	if err != nil {
		log.Warn().Str("field", field).Msg("cannot find the web element, assuming null")
		return nil
	}
	label, err := sub.Attribute("aria-label")
	if err != nil || label == "" {
		log.Warn().Str("field", field).Msg("price element has no aria-label, assuming null")
		return nil
	}
	price, ok := utils.ParsePrice(label)
	if !ok {
		log.Warn().Str("field", field).Str("text", label).Msg("cannot convert price to float, assuming null")
		return nil
	}
	return &price
}

// Rating extracts the product rating out of a scale of 5.
func (Amazon) Rating(el browser.Element) *float64 {
	icon, err := el.Element(amazonRatingSelector)
	if err != nil {
		log.Warn().Msg("cannot find the web element for rating, assuming null")
		return nil
	}
	text, err := icon.Text()
	if err != nil {
		log.Warn().Err(err).Msg("cannot read rating text, assuming null")
		return nil
	}
	rating, ok := utils.ParseNumber(text)
	if !ok {
		log.Warn().Str("text", text).Msg("cannot match rating, assuming null")
		return nil
	}
	return &rating
}

func (Amazon) ReviewCount(el browser.Element) *int {
	sub, err := el.Element(amazonReviewCountSelector)
	if err != nil {
		log.Warn().Msg("cannot find the web element for review count, assuming null")
		return nil
	}
	text, err := sub.Text()
	if err != nil {
		log.Warn().Err(err).Msg("cannot read review count text, assuming null")
		return nil
	}
	count, ok := utils.ParseCount(text)
	if !ok {
		log.Warn().Str("text", text).Msg("cannot match review count, assuming null")
		return nil
	}
	return &count
}
