package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steveyegge/testops/internal/orchestrator"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true)
	readyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	notReadyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show controller and browser node pod status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, _, orch, err := setup()
		if err != nil {
			return err
		}
		fleet, err := orch.FleetStatus(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Print(renderFleet(fleet, term.IsTerminal(int(os.Stdout.Fd()))))
		return nil
	},
}

// renderFleet formats the fleet snapshot, styled when stdout is a
// terminal and plain otherwise.
func renderFleet(fleet orchestrator.Fleet, styled bool) string {
	var b strings.Builder

	heading := func(s string) string {
		if styled {
			return headingStyle.Render(s)
		}
		return s
	}
	readiness := func(ready bool) string {
		if ready {
			if styled {
				return readyStyle.Render("ready")
			}
			return "ready"
		}
		if styled {
			return notReadyStyle.Render("not ready")
		}
		return "not ready"
	}
	dim := func(s string) string {
		if styled {
			return dimStyle.Render(s)
		}
		return s
	}

	fmt.Fprintf(&b, "%s %s\n\n", heading("Namespace:"), fleet.Namespace)

	writeSection := func(title string, pods []orchestrator.PodInfo) {
		fmt.Fprintf(&b, "%s (%d pods)\n", heading(title), len(pods))
		if len(pods) == 0 {
			fmt.Fprintf(&b, "  %s\n", dim("none"))
		}
		for _, p := range pods {
			ip := p.IP
			if ip == "" {
				ip = "-"
			}
			fmt.Fprintf(&b, "  %-40s %-10s %-10s %s\n", p.Name, p.Phase, readiness(p.Ready), dim(ip))
		}
		b.WriteString("\n")
	}

	writeSection("Test Controller", fleet.Controller)
	writeSection("Browser Nodes", fleet.BrowserNodes)
	return b.String()
}
