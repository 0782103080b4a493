package pages

import (
	"fmt"
	"strings"
)

// QACareersURL is the entry point of the QA careers flow.
const QACareersURL = "https://useinsider.com/careers/quality-assurance/"

const seeAllQAJobsXPath = `//a[contains(text(), 'See all QA jobs')]`

// CareersPage is the QA careers landing page.
type CareersPage struct {
	*Page
}

// NewCareersPage wraps a base page.
func NewCareersPage(p *Page) *CareersPage {
	return &CareersPage{Page: p}
}

// OpenQACareers navigates to the QA careers page and clears the cookie
// banner.
func (c *CareersPage) OpenQACareers() error {
	if err := c.Open(QACareersURL); err != nil {
		return err
	}
	c.WaitDocumentReady()
	c.AcceptCookies()
	return nil
}

// IsOpened checks the page actually landed on the careers site.
func (c *CareersPage) IsOpened() bool {
	url := strings.ToLower(c.CurrentURL())
	return strings.Contains(url, "insider") && strings.Contains(url, "careers")
}

// SeeAllQAJobs clicks through to the open positions listing.
func (c *CareersPage) SeeAllQAJobs() (*OpenPositionsPage, error) {
	c.logger.Info("clicking 'See all QA jobs'")
	btn, err := c.VisibleElementX(seeAllQAJobsXPath, DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("see all QA jobs button: %w", err)
	}
	if err := c.ScrollIntoCenter(btn); err != nil {
		return nil, err
	}
	if err := c.ClickJS(btn); err != nil {
		return nil, fmt.Errorf("clicking see all QA jobs: %w", err)
	}

	positions := NewOpenPositionsPage(c.Page)
	if err := positions.WaitLoaded(); err != nil {
		return nil, err
	}
	return positions, nil
}
