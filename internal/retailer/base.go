package retailer

import (
	"PriceScraper/internal/browser"
	"PriceScraper/internal/models"
)

// Base supplies the default extractor set and single-page pagination.
// Concrete variants embed it and override what their site exposes. It does
// not implement ProductElements or ProductID: every variant must provide its
// own locator and identifier extractor to be valid.
type Base struct{}

// Paginate treats the page as single-page: load it once, locate the
// listings, assemble products.
func (Base) Paginate(page Page, url string, _ int, locate LocateFunc, assemble AssembleFunc) error {
	if err := page.Navigate(url); err != nil {
		return err
	}
	locateAndAssemble(locate, assemble)
	return nil
}

// locateAndAssemble runs one assembly pass. Location failures end the pass,
// never the run.
func locateAndAssemble(locate LocateFunc, assemble AssembleFunc) {
	elements, err := locate()
	if err != nil {
		log.Error().Err(err).Msg("could not locate product elements, skipping assembly pass")
		return
	}
	assemble(elements)
}

func (Base) Title(browser.Element) *string { return nil }

func (Base) BuyPrice(browser.Element) *float64 { return nil }

func (Base) OriginalPrice(browser.Element) *float64 { return nil }

func (Base) CouponValue(browser.Element) *float64 { return nil }

func (Base) Rating(browser.Element) *float64 { return nil }

func (Base) ReviewCount(browser.Element) *int { return nil }

func (Base) AdditionalAttributes(browser.Element) models.JSONMap { return nil }
