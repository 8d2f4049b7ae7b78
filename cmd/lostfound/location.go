package main

import (
	"github.com/spf13/cobra"
)

func newLocationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "location",
		Aliases: []string{"loc"},
		Short:   "Manage location codes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "code <id|label> [code]",
			Short: "Change or clear a location code",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				q, err := a.svc.Query(cmd.Context())
				if err != nil {
					return err
				}
				id := resolveRule(q.Locations(), args[0])
				_, _, err = a.svc.UpdateLocationCode(cmd.Context(), id, optionalArg(args, 1))
				return reported(err)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the fixed locations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				q, err := a.svc.Query(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(q.Locations()))
				for _, loc := range q.Locations() {
					rows = append(rows, []string{loc.ID, loc.Label, loc.Code, yesNo(loc.Outdoor)})
				}
				return renderTable(a.stdout, []string{"ID", "LABEL", "CODE", "OUTDOOR"}, rows)
			},
		},
	)
	return cmd
}
