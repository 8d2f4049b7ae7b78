package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lostfound/internal/core"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals, claim rate and distributions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := a.svc.Query(cmd.Context())
			if err != nil {
				return err
			}
			summary := [][]string{
				{"总数", fmt.Sprint(q.Total())},
				{"未认领", fmt.Sprint(q.CountByStatus(core.StatusLost))},
				{"已认领", fmt.Sprint(q.CountByStatus(core.StatusClaimed))},
				{"认领率", fmt.Sprintf("%d%%", q.ClaimRatePercent())},
			}
			if err := renderTable(a.stdout, []string{"METRIC", "VALUE"}, summary); err != nil {
				return err
			}
			if err := renderBuckets(a, "CATEGORY", q.DistributionByCategory()); err != nil {
				return err
			}
			return renderBuckets(a, "LOCATION", q.DistributionByLocation())
		},
	}
}

func renderBuckets(a *app, title string, buckets []core.Bucket) error {
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{b.Label, b.Code, fmt.Sprint(b.Count)})
	}
	return renderTable(a.stdout, []string{title, "CODE", "ITEMS"}, rows)
}
