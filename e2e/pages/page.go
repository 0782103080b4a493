// Package pages holds the page objects the e2e suite drives: locators and
// waits over rod pages, no assertions.
package pages

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Wait ceilings shared by all page objects.
const (
	DefaultTimeout = 20 * time.Second
	ShortTimeout   = 5 * time.Second
	LongTimeout    = 30 * time.Second
)

const cookieAcceptXPath = `//a[text()='Accept All']`

// Page is the base page object.
type Page struct {
	page    *rod.Page
	browser *rod.Browser
	logger  *slog.Logger
}

// NewPage wraps an open rod page.
func NewPage(browser *rod.Browser, page *rod.Page, logger *slog.Logger) *Page {
	return &Page{page: page, browser: browser, logger: logger}
}

// Rod exposes the underlying page for screenshots and raw access.
func (p *Page) Rod() *rod.Page {
	return p.page
}

// Open navigates to url and waits for the load event.
func (p *Page) Open(url string) error {
	p.logger.Info("opening url", "url", url)
	if err := p.page.Timeout(LongTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := p.page.Timeout(LongTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("waiting for load of %s: %w", url, err)
	}
	return nil
}

// WaitDocumentReady polls document.readyState until it is "complete" or
// the default timeout elapses. Timeout is logged, not returned; pages that
// never settle are still usable for the waits that follow.
func (p *Page) WaitDocumentReady() {
	deadline := time.Now().Add(DefaultTimeout)
	for time.Now().Before(deadline) {
		obj, err := p.page.Eval(`() => document.readyState`)
		if err == nil && obj.Value.Str() == "complete" {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	p.logger.Warn("document ready state timeout")
}

// AcceptCookies clicks the consent banner if it shows up within a short
// window. Best effort; an absent or already-accepted banner is fine.
func (p *Page) AcceptCookies() {
	el, err := p.page.Timeout(3 * time.Second).ElementX(cookieAcceptXPath)
	if err != nil {
		p.logger.Debug("no cookie banner found")
		return
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		p.logger.Debug("cookie banner click failed", "error", err)
		return
	}
	p.logger.Info("cookies accepted")
}

// VisibleElement waits for a selector to be present and visible.
func (p *Page) VisibleElement(selector string, timeout time.Duration) (*rod.Element, error) {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", selector, err)
	}
	if err := el.Timeout(timeout).WaitVisible(); err != nil {
		return nil, fmt.Errorf("waiting for %s to be visible: %w", selector, err)
	}
	return el, nil
}

// VisibleElementX is VisibleElement for an XPath locator.
func (p *Page) VisibleElementX(xpath string, timeout time.Duration) (*rod.Element, error) {
	el, err := p.page.Timeout(timeout).ElementX(xpath)
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", xpath, err)
	}
	if err := el.Timeout(timeout).WaitVisible(); err != nil {
		return nil, fmt.Errorf("waiting for %s to be visible: %w", xpath, err)
	}
	return el, nil
}

// IsVisible reports whether a selector becomes visible within timeout.
func (p *Page) IsVisible(selector string, timeout time.Duration) bool {
	_, err := p.VisibleElement(selector, timeout)
	return err == nil
}

// ClickJS clicks an element through JavaScript. Some of the site's
// buttons sit under overlays that swallow synthetic mouse events.
func (p *Page) ClickJS(el *rod.Element) error {
	_, err := el.Eval(`() => this.click()`)
	if err != nil {
		return fmt.Errorf("js click: %w", err)
	}
	return nil
}

// ScrollIntoCenter scrolls an element to the viewport center.
func (p *Page) ScrollIntoCenter(el *rod.Element) error {
	_, err := el.Eval(`() => this.scrollIntoView({block: 'center'})`)
	if err != nil {
		return fmt.Errorf("scrolling into view: %w", err)
	}
	return nil
}

// CurrentURL returns the page's URL, empty on error.
func (p *Page) CurrentURL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// WaitTabCount blocks until the browser has at least n tabs open.
func (p *Page) WaitTabCount(n int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		tabs, err := p.browser.Pages()
		if err == nil && len(tabs) >= n {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("expected %d tabs within %v", n, timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// NewestTab activates and returns the most recently opened tab.
func (p *Page) NewestTab() (*rod.Page, error) {
	tabs, err := p.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("listing tabs: %w", err)
	}
	if len(tabs) == 0 {
		return nil, fmt.Errorf("no tabs open")
	}
	tab := tabs[len(tabs)-1]
	if _, err := tab.Activate(); err != nil {
		return nil, fmt.Errorf("activating tab: %w", err)
	}
	return tab, nil
}

// WaitURLOn polls a page's URL until match returns true or timeout.
func WaitURLOn(page *rod.Page, timeout time.Duration, match func(url string) bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if info, err := page.Info(); err == nil && match(info.URL) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("url condition not met within %v", timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// envSeconds reads a bare-seconds env var, the suite's knob format.
func envSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
