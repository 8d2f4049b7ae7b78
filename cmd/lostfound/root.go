package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lostfound",
		Short: "Campus lost item encoding and lifecycle manager",
		Long: `lostfound maintains the category and location code tables, registers
found items under a generated code and tracks each item until it is claimed.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.HasParent() {
				return nil
			}
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if !a.showMetrics || a.svc == nil {
				return nil
			}
			return a.writeMetrics(a.stderr)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./lostfound.yaml if present)")
	root.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "print service metrics after the command")
	root.AddCommand(
		newCategoryCmd(a),
		newLocationCmd(a),
		newItemCmd(a),
		newStatsCmd(a),
		newSnapshotCmd(a),
	)
	return root
}

// writeMetrics prints the recorded service metrics: the expvar snapshot as
// JSON, or the Prometheus registry in the text exposition format.
func (a *app) writeMetrics(w io.Writer) error {
	if a.expvar != nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a.expvar.Snapshot())
	}
	if a.registry == nil {
		return nil
	}
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
