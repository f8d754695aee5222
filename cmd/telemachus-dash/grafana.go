package main

import (
	"github.com/spf13/cobra"

	"telemachus-dash/internal/dashboard"
)

var grafanaOut string

var grafanaCmd = &cobra.Command{
	Use:   "grafana",
	Short: "Render the Grafana dashboard for the exported metrics",
	Long:  "grafana writes a Grafana dashboard JSON for the Prometheus metrics served by serve. PROMETHEUS_DATASOURCE_UID selects the data source.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboard.RenderGrafana(grafanaOut)
	},
}

func init() {
	grafanaCmd.Flags().StringVar(&grafanaOut, "out", "build", "Output directory")
}
