package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage item category codes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <label> <code>",
			Short: "Add a category with a one-character code",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, _, err := a.svc.AddCategory(cmd.Context(), args[0], args[1])
				return reported(err)
			},
		},
		&cobra.Command{
			Use:   "remove <id|label>",
			Short: "Remove a category; items keep their codes",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := a.categoryID(cmd, args[0])
				if err != nil {
					return err
				}
				_, err = a.svc.RemoveCategory(cmd.Context(), id)
				return reported(err)
			},
		},
		&cobra.Command{
			Use:   "label <id|label> <new-label>",
			Short: "Rename a category",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := a.categoryID(cmd, args[0])
				if err != nil {
					return err
				}
				_, _, err = a.svc.UpdateCategoryLabel(cmd.Context(), id, args[1])
				return reported(err)
			},
		},
		&cobra.Command{
			Use:   "code <id|label> [code]",
			Short: "Change or clear a category code",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := a.categoryID(cmd, args[0])
				if err != nil {
					return err
				}
				_, _, err = a.svc.UpdateCategoryCode(cmd.Context(), id, optionalArg(args, 1))
				return reported(err)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List categories with item counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				q, err := a.svc.Query(cmd.Context())
				if err != nil {
					return err
				}
				var rows [][]string
				for _, b := range q.DistributionByCategory() {
					rows = append(rows, []string{b.ID, b.Label, b.Code, fmt.Sprint(b.Count)})
				}
				return renderTable(a.stdout, []string{"ID", "LABEL", "CODE", "ITEMS"}, rows)
			},
		},
	)
	return cmd
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func (a *app) categoryID(cmd *cobra.Command, arg string) (string, error) {
	q, err := a.svc.Query(cmd.Context())
	if err != nil {
		return "", err
	}
	return resolveRule(q.Categories(), arg), nil
}
