package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"

	"PriceScraper/internal/logger"
)

// Session is one scoped headless-browser session. It is acquired at scraper
// construction and must be released with Close on every exit path.
//
// Timeouts bound two operations: page loads (Navigate) and element waits
// (WaitUntilPresent). Neither aborts the run; a load timeout halts further
// loading and continues with whatever rendered.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
	log     zerolog.Logger
}

// Options configures the browser session.
type Options struct {
	// Timeout is the per-page-load and element-wait budget.
	Timeout time.Duration
	// Proxy is an optional proxy server passed through to the browser launcher.
	Proxy string
	// Headless toggles headless mode; scrape runs normally keep this on.
	Headless bool
}

// NewSession launches a browser and opens a fresh page. Failure here is the
// only fatal error in a scrape run.
func NewSession(opts Options) (*Session, error) {
	log := logger.For("browser")
	log.Info().Dur("timeout", opts.Timeout).Msg("creating web browser session")

	l := launcher.New().Headless(opts.Headless)
	if opts.Proxy != "" {
		l = l.Proxy(opts.Proxy)
		log.Info().Str("proxy", opts.Proxy).Msg("configured proxy for browser session")
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &Session{
		browser: b,
		page:    page,
		timeout: opts.Timeout,
		log:     log,
	}, nil
}

// Navigate loads the given URL. A load that exceeds the session timeout is
// not an error: the browser is told to stop loading and the session keeps
// whatever rendered.
func (s *Session) Navigate(url string) error {
	s.log.Info().Str("url", url).Msg("loading page")

	err := s.page.Timeout(s.timeout).Navigate(url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.Warn().Str("url", url).Msg("page load timed out, stopping load and continuing")
			s.stopLoading()
			return nil
		}
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	if err := s.page.Timeout(s.timeout).WaitLoad(); err != nil {
		s.log.Warn().Str("url", url).Msg("page did not finish loading in time, continuing with rendered content")
		s.stopLoading()
	}
	return nil
}

func (s *Session) stopLoading() {
	if err := (proto.PageStopLoading{}).Call(s.page); err != nil {
		s.log.Warn().Err(err).Msg("could not stop page loading")
	}
}

// WaitUntilPresent waits up to the session timeout for an element matching
// the selector to appear. A timeout yields ErrNotFound, never a run failure.
func (s *Session) WaitUntilPresent(selector string) (Element, error) {
	el, err := s.page.Timeout(s.timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return rodElement{el: el}, nil
}

// Element finds the first element matching the selector in the current page
// state, without the full wait budget.
func (s *Session) Element(selector string) (Element, error) {
	el, err := s.page.Timeout(elementLookupTimeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return rodElement{el: el}, nil
}

// Elements returns all elements matching the selector, in document order.
// The order is stable for a fixed page state.
func (s *Session) Elements(selector string) ([]Element, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find elements %s: %w", selector, err)
	}
	return wrapElements(els), nil
}

// Close releases the browser session.
func (s *Session) Close() {
	if err := s.browser.Close(); err != nil {
		s.log.Warn().Err(err).Msg("error closing browser session")
	}
}
