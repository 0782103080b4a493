package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
)

// Locators for the open positions listing.
const (
	locationDropdown   = "#filter-by-location"
	departmentDropdown = "#filter-by-department"
	locationOptions    = `#filter-by-location option[class*='job-location']`
	departmentOptions  = `#filter-by-department option[class*='job-team']`
	jobsList           = "#jobs-list"
	jobItem            = "div.position-list-item-wrapper"
	jobPosition        = "p.position-title"
	jobDepartment      = "span.position-department"
	jobLocation        = "div.position-location"
	noJobsMessage      = ".no-job-result"
	viewRoleXPath      = `.//a[text()='View Role']`
	leverLinkFallback  = `a[href*='lever']`
)

// Job is one listed position.
type Job struct {
	Position   string
	Department string
	Location   string
}

// OpenPositionsPage is the filterable job listing.
type OpenPositionsPage struct {
	*Page

	// The site applies filters asynchronously with no signal beyond the
	// list re-rendering; these settle delays mirror that behavior and are
	// tunable per environment.
	selectWait time.Duration
	applyWait  time.Duration
}

// NewOpenPositionsPage wraps a base page.
func NewOpenPositionsPage(p *Page) *OpenPositionsPage {
	return &OpenPositionsPage{
		Page:       p,
		selectWait: envSeconds("FILTER_SELECT_WAIT", 3*time.Second),
		applyWait:  envSeconds("FILTER_APPLY_WAIT", 5*time.Second),
	}
}

// WaitLoaded waits for the page, its filter dropdowns, and the initial
// unfiltered job list.
func (o *OpenPositionsPage) WaitLoaded() error {
	o.WaitDocumentReady()
	o.AcceptCookies()
	if err := o.waitForFilters(); err != nil {
		return err
	}
	o.logger.Info("waiting for jobs under the default filter")
	o.waitForJobs(LongTimeout)
	return nil
}

// waitForFilters waits for both dropdowns to be populated with the
// job-specific option classes the site loads asynchronously.
func (o *OpenPositionsPage) waitForFilters() error {
	o.logger.Info("waiting for filter dropdowns")
	if _, err := o.VisibleElement(locationDropdown, DefaultTimeout); err != nil {
		return fmt.Errorf("location dropdown: %w", err)
	}
	if _, err := o.VisibleElement(departmentDropdown, DefaultTimeout); err != nil {
		return fmt.Errorf("department dropdown: %w", err)
	}
	if _, err := o.page.Timeout(LongTimeout).Element(locationOptions); err != nil {
		return fmt.Errorf("location options never loaded: %w", err)
	}
	if _, err := o.page.Timeout(LongTimeout).Element(departmentOptions); err != nil {
		return fmt.Errorf("department options never loaded: %w", err)
	}
	return nil
}

// ApplyFilters selects a location and a department, then waits for the
// list to settle.
func (o *OpenPositionsPage) ApplyFilters(location, department string) error {
	o.logger.Info("applying filters", "location", location, "department", department)
	if err := o.selectOption(locationDropdown, location); err != nil {
		return err
	}
	if err := o.selectOption(departmentDropdown, department); err != nil {
		return err
	}
	time.Sleep(o.applyWait)
	o.waitForJobs(15 * time.Second)
	return nil
}

// selectOption picks the first dropdown option whose text contains want,
// case-insensitively.
func (o *OpenPositionsPage) selectOption(dropdown, want string) error {
	if err := o.waitForFilters(); err != nil {
		return err
	}
	sel, err := o.VisibleElement(dropdown, DefaultTimeout)
	if err != nil {
		return err
	}

	options, err := sel.Elements("option")
	if err != nil {
		return fmt.Errorf("reading %s options: %w", dropdown, err)
	}
	for _, opt := range options {
		text, err := opt.Text()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(text), strings.ToLower(want)) {
			if err := sel.Select([]string{text}, true, rod.SelectorTypeText); err != nil {
				return fmt.Errorf("selecting %q in %s: %w", text, dropdown, err)
			}
			o.logger.Info("selected option", "dropdown", dropdown, "option", text)
			time.Sleep(o.selectWait)
			return nil
		}
	}

	available := make([]string, 0, len(options))
	for _, opt := range options {
		if text, err := opt.Text(); err == nil {
			available = append(available, text)
		}
	}
	return fmt.Errorf("option %q not in %s (available: %s)", want, dropdown, strings.Join(available, ", "))
}

// waitForJobs reports whether at least one job card renders within
// timeout.
func (o *OpenPositionsPage) waitForJobs(timeout time.Duration) bool {
	if _, err := o.page.Timeout(timeout).Element(jobItem); err != nil {
		o.logger.Warn("no jobs appeared", "timeout", timeout)
		return false
	}
	return true
}

// HasJobs reports whether the filtered listing shows any jobs.
func (o *OpenPositionsPage) HasJobs() bool {
	if o.IsVisible(noJobsMessage, 2*time.Second) {
		o.logger.Info("no-jobs message displayed")
		return false
	}
	if _, err := o.VisibleElement(jobsList, 10*time.Second); err != nil {
		o.logger.Warn("jobs list not visible")
		return false
	}
	items, err := o.page.Elements(jobItem)
	if err != nil {
		return false
	}
	o.logger.Info("job cards found", "count", len(items))
	return len(items) > 0
}

// Jobs returns the listed positions. Cards missing a position title are
// skipped; they are layout placeholders.
func (o *OpenPositionsPage) Jobs() ([]Job, error) {
	items, err := o.page.Timeout(DefaultTimeout).Elements(jobItem)
	if err != nil {
		return nil, fmt.Errorf("listing job cards: %w", err)
	}

	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		job := Job{
			Position:   elementText(item, jobPosition),
			Department: elementText(item, jobDepartment),
			Location:   elementText(item, jobLocation),
		}
		if job.Position != "" {
			jobs = append(jobs, job)
		}
	}
	o.logger.Info("jobs retrieved", "count", len(jobs))
	return jobs, nil
}

func elementText(item *rod.Element, selector string) string {
	el, err := item.Element(selector)
	if err != nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// ViewRole hovers the index-th job card and clicks its View Role button,
// which opens the application page in a new tab.
func (o *OpenPositionsPage) ViewRole(index int) error {
	o.logger.Info("clicking view role", "index", index)
	items, err := o.page.Timeout(DefaultTimeout).Elements(jobItem)
	if err != nil {
		return fmt.Errorf("listing job cards: %w", err)
	}
	if index >= len(items) {
		return fmt.Errorf("no job card at index %d (have %d)", index, len(items))
	}
	item := items[index]

	if err := o.ScrollIntoCenter(item); err != nil {
		return err
	}
	if err := item.Hover(); err != nil {
		return fmt.Errorf("hovering job card %d: %w", index, err)
	}

	// The View Role anchor only renders on hover; fall back to the raw
	// lever link when the themed button is absent.
	btn, err := item.Timeout(ShortTimeout).ElementX(viewRoleXPath)
	if err != nil {
		btn, err = item.Element(leverLinkFallback)
		if err != nil {
			return fmt.Errorf("view role button not found on card %d", index)
		}
	}
	return o.ClickJS(btn)
}

// LeverOpened switches to the newest tab and verifies it landed on the
// Lever application site.
func (o *OpenPositionsPage) LeverOpened() bool {
	if err := o.WaitTabCount(2, 10*time.Second); err != nil {
		o.logger.Warn("application tab never opened", "error", err)
		return false
	}
	tab, err := o.NewestTab()
	if err != nil {
		o.logger.Warn("switching to application tab failed", "error", err)
		return false
	}

	err = WaitURLOn(tab, 15*time.Second, func(url string) bool {
		return strings.Contains(strings.ToLower(url), "lever")
	})
	if err != nil {
		o.logger.Warn("lever url not detected", "error", err)
	}

	info, err := tab.Info()
	if err != nil {
		return false
	}
	url := strings.ToLower(info.URL)
	return strings.Contains(url, "lever.co") || strings.Contains(url, "jobs.lever")
}
