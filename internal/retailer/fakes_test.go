package retailer

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"PriceScraper/internal/browser"
)

// htmlElement backs extractor tests with parsed HTML fragments instead of a
// live browser.
type htmlElement struct {
	sel *goquery.Selection
}

func parseHTML(t *testing.T, fragment string) htmlElement {
	t.Helper()
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return htmlElement{sel: goquery.NewDocumentFromNode(node).Selection}
}

func (h htmlElement) Text() (string, error) {
	return h.sel.Text(), nil
}

func (h htmlElement) Attribute(name string) (string, error) {
	v, _ := h.sel.Attr(name)
	return v, nil
}

func (h htmlElement) Element(selector string) (browser.Element, error) {
	found := h.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, browser.ErrNotFound
	}
	return htmlElement{sel: found}, nil
}

func (h htmlElement) Elements(selector string) ([]browser.Element, error) {
	var out []browser.Element
	h.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, htmlElement{sel: s})
	})
	return out, nil
}

func (h htmlElement) Click() error { return nil }

// fakeButton stands in for a clickable control and counts activations.
type fakeButton struct {
	clicks int
}

func (b *fakeButton) Text() (string, error)                      { return "", nil }
func (b *fakeButton) Attribute(string) (string, error)           { return "", nil }
func (b *fakeButton) Element(string) (browser.Element, error)    { return nil, browser.ErrNotFound }
func (b *fakeButton) Elements(string) ([]browser.Element, error) { return nil, nil }
func (b *fakeButton) Click() error                               { b.clicks++; return nil }

// fakePage scripts pagination behavior: it records navigations and answers
// waits from a per-selector budget (-1 means always present).
type fakePage struct {
	navigations []string
	content     browser.Element
	elements    []browser.Element
	waitOK      map[string]int
	button      *fakeButton
}

func (p *fakePage) Navigate(url string) error {
	p.navigations = append(p.navigations, url)
	return nil
}

func (p *fakePage) WaitUntilPresent(selector string) (browser.Element, error) {
	n, ok := p.waitOK[selector]
	if !ok || n == 0 {
		return nil, browser.ErrNotFound
	}
	if n > 0 {
		p.waitOK[selector] = n - 1
	}
	if p.button != nil {
		return p.button, nil
	}
	return p.content, nil
}

func (p *fakePage) Element(selector string) (browser.Element, error) {
	if p.content == nil {
		return nil, browser.ErrNotFound
	}
	return p.content.Element(selector)
}

func (p *fakePage) Elements(selector string) ([]browser.Element, error) {
	if p.elements != nil {
		return p.elements, nil
	}
	if p.content == nil {
		return nil, nil
	}
	return p.content.Elements(selector)
}
