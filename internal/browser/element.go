package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNotFound reports that an element is absent from the page, either
// structurally or after a wait timed out.
var ErrNotFound = errors.New("element not found")

// elementLookupTimeout bounds sub-element lookups inside extractors. These
// run against already-rendered listings, so a short budget is enough.
const elementLookupTimeout = 2 * time.Second

// Element is the accessor surface field extractors operate on. Production
// elements wrap rod DOM nodes; tests substitute parsed HTML fragments.
type Element interface {
	// Text returns the rendered text of the element and its descendants.
	Text() (string, error)
	// Attribute returns the named attribute, or "" when it is absent.
	Attribute(name string) (string, error)
	// Element finds the first descendant matching the CSS selector.
	// Returns ErrNotFound when no such descendant exists.
	Element(selector string) (Element, error)
	// Elements finds all descendants matching the CSS selector, in document order.
	Elements(selector string) ([]Element, error)
	// Click activates the element (e.g. a reveal button).
	Click() error
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e rodElement) Element(selector string) (Element, error) {
	el, err := e.el.Timeout(elementLookupTimeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return rodElement{el: el}, nil
}

func (e rodElement) Elements(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find elements %s: %w", selector, err)
	}
	return wrapElements(els), nil
}

func (e rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func wrapElements(els rod.Elements) []Element {
	wrapped := make([]Element, 0, len(els))
	for _, el := range els {
		wrapped = append(wrapped, rodElement{el: el})
	}
	return wrapped
}
