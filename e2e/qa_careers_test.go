//go:build e2e

package e2e

import (
	"strings"
	"testing"

	"github.com/steveyegge/testops/e2e/pages"
)

const (
	filterLocation   = "Istanbul, Turkiye"
	filterDepartment = "Quality Assurance"
)

// TestQACareersFlow walks the whole QA careers journey: open the careers
// page, list all QA jobs, filter by location and department, verify every
// card, and check each View Role leads to the Lever application site.
func TestQACareersFlow(t *testing.T) {
	page := newPage(t)

	careers := pages.NewCareersPage(page)
	if err := careers.OpenQACareers(); err != nil {
		t.Fatalf("opening QA careers page: %v", err)
	}
	if !careers.IsOpened() {
		t.Fatalf("QA careers page did not open, url: %s", careers.CurrentURL())
	}

	positions, err := careers.SeeAllQAJobs()
	if err != nil {
		t.Fatalf("navigating to open positions: %v", err)
	}

	if err := positions.ApplyFilters(filterLocation, filterDepartment); err != nil {
		t.Fatalf("applying filters: %v", err)
	}
	if !positions.HasJobs() {
		t.Skipf("no QA jobs currently listed for %s", filterLocation)
	}

	jobs, err := positions.Jobs()
	if err != nil {
		t.Fatalf("reading job cards: %v", err)
	}
	if len(jobs) == 0 {
		t.Skipf("no QA jobs currently listed for %s", filterLocation)
	}

	for i, job := range jobs {
		if !strings.Contains(job.Position, filterDepartment) {
			t.Errorf("job %d: position %q does not mention %q", i, job.Position, filterDepartment)
		}
		if !strings.Contains(job.Department, filterDepartment) {
			t.Errorf("job %d: department %q does not mention %q", i, job.Department, filterDepartment)
		}
		if !strings.Contains(job.Location, filterLocation) {
			t.Errorf("job %d: location %q does not mention %q", i, job.Location, filterLocation)
		}
	}
	if t.Failed() {
		t.FailNow()
	}

	for i := range jobs {
		if err := positions.ViewRole(i); err != nil {
			t.Fatalf("job %d: view role: %v", i, err)
		}
		if !positions.LeverOpened() {
			t.Fatalf("job %d: lever application page did not open", i)
		}
		if err := closeNewestTab(); err != nil {
			t.Fatalf("job %d: closing application tab: %v", i, err)
		}
		page.WaitDocumentReady()
	}
}

// closeNewestTab closes the most recently opened tab, returning focus to
// the listing.
func closeNewestTab() error {
	tabs, err := session.Browser.Pages()
	if err != nil {
		return err
	}
	if len(tabs) < 2 {
		return nil
	}
	return tabs[len(tabs)-1].Close()
}
