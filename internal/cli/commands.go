package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/testops/internal/helm"
	"github.com/steveyegge/testops/internal/orchestrator"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: deploy, readiness, collect, execute",
	Long: `Run the five pipeline stages in order: deploy the fleet (unless
--skip-deploy), wait for browser nodes and the test controller to become
ready, collect the test cases, and execute the suite against an available
browser node. Any stage failing after its retries halts the run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, orch, err := setup()
		if err != nil {
			return err
		}
		return orch.Run(cmd.Context(), orchestrator.RunOptions{
			ChartPath:  cfg.HelmChartPath,
			NodeCount:  flagNodeCount,
			ValuesFile: cfg.HelmValuesFile,
			SkipDeploy: flagSkipDeploy,
		})
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy or upgrade the fleet release via Helm",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, orch, err := setup()
		if err != nil {
			return err
		}
		return orch.Deploy(cmd.Context(), cfg.HelmChartPath, flagNodeCount, cfg.HelmValuesFile)
	},
}

var readinessCmd = &cobra.Command{
	Use:   "readiness",
	Short: "Wait for browser nodes and the test controller to become ready",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, orch, err := setup()
		if err != nil {
			return err
		}
		if err := orch.WaitReady(cmd.Context(), cfg.BrowserNodePodLabel, 1); err != nil {
			return err
		}
		return orch.WaitReady(cmd.Context(), cfg.ControllerPodLabel, 1)
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect test cases from the test controller pod",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, _, orch, err := setup()
		if err != nil {
			return err
		}
		cases, err := orch.CollectTests(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("\nCollected test cases:")
		for _, tc := range cases {
			fmt.Printf("  - %s\n", tc)
		}
		return nil
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute tests in the controller pod against an available browser node",
	Long: `Execute the e2e suite inside the test controller pod. The suite runs
against the first browser node with a free session slot; --test restricts
execution to the named tests.

Examples:
  testops execute
  testops execute --test TestQACareersFlow --test TestFilterByLocation`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, _, orch, err := setup()
		if err != nil {
			return err
		}
		return orch.ExecuteTests(cmd.Context(), flagTests)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, deployCmd} {
		cmd.Flags().IntVar(&flagNodeCount, "node-count", helm.DefaultNodeCount,
			fmt.Sprintf("Browser node replica count (clamped to [%d, %d])", helm.MinNodeCount, helm.MaxNodeCount))
		cmd.Flags().StringVar(&flagChart, "chart", "", "Path to the Helm chart")
		cmd.Flags().StringVarP(&flagValues, "values", "f", "", "Path to a Helm values file")
	}
	runCmd.Flags().BoolVar(&flagSkipDeploy, "skip-deploy", false, "Skip the deployment stage")
	executeCmd.Flags().StringArrayVar(&flagTests, "test", nil, "Run only the named test (repeatable)")
}
