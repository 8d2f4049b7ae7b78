package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lostfound/internal/adapters/exports"
	"lostfound/internal/core"
	"lostfound/internal/itemstore"
)

// draftFlags are the entry form fields shared by register and preview.
type draftFlags struct {
	category string
	location string
	name     string
	floor    string
	grade    string
	class    string
	student  string
	foundAt  string
}

func (f *draftFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.category, "category", "t", "", "category id or label")
	fl.StringVarP(&f.location, "location", "l", "", "location id or label")
	fl.StringVarP(&f.name, "name", "n", "", "item name")
	fl.StringVarP(&f.floor, "floor", "f", "", "floor 1-5 (outdoor locations use 0)")
	fl.StringVarP(&f.grade, "grade", "g", "", "finder grade 1-6")
	fl.StringVar(&f.class, "class", "", "finder class 01-13")
	fl.StringVarP(&f.student, "student", "s", "", "finder student number 01-44")
	fl.StringVar(&f.foundAt, "found-at", "", `found time "YYYY-MM-DD HH:MM" (default now)`)
}

// draft builds the entry. Category and location accept a rule id or label.
func (f *draftFlags) draft(ctx context.Context, a *app) (core.ItemDraft, error) {
	at, err := parseTime(f.foundAt, a.svc.Location())
	if err != nil {
		return core.ItemDraft{}, fmt.Errorf("--found-at: %w", err)
	}
	q, err := a.svc.Query(ctx)
	if err != nil {
		return core.ItemDraft{}, err
	}
	return core.ItemDraft{
		TypeID:    resolveRule(q.Categories(), f.category),
		LocID:     resolveRule(q.Locations(), f.location),
		ItemName:  f.name,
		Floor:     f.floor,
		FoundAt:   at,
		Grade:     f.grade,
		ClassNum:  f.class,
		StudentID: f.student,
	}, nil
}

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Register, claim and inspect lost items",
	}
	cmd.AddCommand(
		newItemRegisterCmd(a),
		newItemClaimCmd(a),
		newItemRemoveCmd(a),
		newItemListCmd(a),
		newItemShowCmd(a),
		newItemLabelCmd(a),
		newItemPreviewCmd(a),
		newItemExportCmd(a),
	)
	return cmd
}

func newItemRegisterCmd(a *app) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a found item and print its generated code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := flags.draft(cmd.Context(), a)
			if err != nil {
				return err
			}
			item, _, err := a.svc.RegisterItem(cmd.Context(), draft)
			if err != nil {
				return reported(err)
			}
			_, err = fmt.Fprintln(a.stdout, item.ID)
			return err
		},
	}
	flags.bind(cmd)
	return cmd
}

func newItemPreviewCmd(a *app) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the code an entry would receive; unset parts print as ?",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := flags.draft(cmd.Context(), a)
			if err != nil {
				return err
			}
			code, err := a.svc.PreviewCode(cmd.Context(), draft)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, code)
			return err
		},
	}
	flags.bind(cmd)
	return cmd
}

func newItemClaimCmd(a *app) *cobra.Command {
	var claimer, at string
	cmd := &cobra.Command{
		Use:   "claim <id|code>",
		Short: "Mark an item as returned to its owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseTime(at, a.svc.Location())
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
			id, err := a.resolveItem(cmd, args[0])
			if err != nil {
				return err
			}
			_, _, err = a.svc.ClaimItem(cmd.Context(), id, claimer, when)
			return reported(err)
		},
	}
	cmd.Flags().StringVarP(&claimer, "by", "b", "", "name of the claimer")
	cmd.Flags().StringVar(&at, "at", "", `claim time "YYYY-MM-DD HH:MM" (default now)`)
	return cmd
}

func newItemRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|code>",
		Short: "Delete an unclaimed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveItem(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = a.svc.RemoveItem(cmd.Context(), id)
			return reported(err)
		},
	}
}

func newItemListCmd(a *app) *cobra.Command {
	var search, category, location, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := a.svc.Query(cmd.Context())
			if err != nil {
				return err
			}
			preds := []itemstore.Predicate{itemstore.InCategory(category), itemstore.MatchesSearch(search)}
			if location != "" {
				preds = append(preds, itemstore.AtLocation(location))
			}
			if status != "" {
				preds = append(preds, itemstore.WithStatus(core.ItemStatus(status)))
			}
			var rows [][]string
			for item := range q.Filter(itemstore.And(preds...)) {
				rows = append(rows, []string{
					item.ID,
					item.GeneratedCode,
					item.ItemName,
					q.CategoryLabel(item.TypeID),
					q.LocationLabel(item.LocID),
					item.FoundAt(q.Location()).Format(cliTimeLayout),
					item.Finder,
					statusText(item),
				})
			}
			return renderTable(a.stdout, []string{"ID", "CODE", "ITEM", "CATEGORY", "LOCATION", "FOUND", "FINDER", "STATUS"}, rows)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "case-insensitive match on name, code, finder or claimer")
	cmd.Flags().StringVarP(&category, "category", "t", "", "only items of this category id")
	cmd.Flags().StringVarP(&location, "location", "l", "", "only items found at this location id")
	cmd.Flags().StringVar(&status, "status", "", "only lost or claimed items")
	return cmd
}

func newItemShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|code>",
		Short: "Show one item with its decoded code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveItem(cmd, args[0])
			if err != nil {
				return err
			}
			view, err := a.svc.Label(cmd.Context(), id)
			if err != nil {
				return a.printer.Errorf("%v", err)
			}
			item := view.Item
			rows := [][]string{
				{"ID", item.ID},
				{"CODE", item.GeneratedCode},
				{"TYPE PART", view.Segments.TypePart},
				{"LOC PART", view.Segments.LocPart},
				{"TIME PART", view.Segments.TimePart},
				{"PERSON PART", view.Segments.PersonPart},
				{"ITEM", item.ItemName},
				{"CATEGORY", view.CategoryLabel},
				{"LOCATION", fmt.Sprintf("%s (%s层)", view.LocationLabel, item.Floor)},
				{"FOUND", view.FoundAt},
				{"FINDER", item.Finder},
				{"STATUS", statusText(item)},
			}
			if claimedAt, ok := item.ClaimedAt(a.svc.Location()); ok {
				rows = append(rows, []string{"CLAIMED", claimedAt.Format(cliTimeLayout)})
			}
			return renderTable(a.stdout, []string{"FIELD", "VALUE"}, rows)
		},
	}
}

func newItemLabelCmd(a *app) *cobra.Command {
	var store bool
	cmd := &cobra.Command{
		Use:   "label <id|code>",
		Short: "Print the QR label payload and image URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveItem(cmd, args[0])
			if err != nil {
				return err
			}
			view, err := a.svc.Label(cmd.Context(), id)
			if err != nil {
				return a.printer.Errorf("%v", err)
			}
			if _, err := fmt.Fprintf(a.stdout, "%s\n\n%s\n%s\n", view.QRPayload, view.QRImageURL, view.Filename); err != nil {
				return err
			}
			if !store {
				return nil
			}
			exporter, err := a.exportsFor(cmd.Context())
			if err != nil {
				return err
			}
			art, err := exporter.ExportLabel(cmd.Context(), view)
			if err != nil {
				return err
			}
			a.printer.Success("label stored at %s", art.Key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&store, "export", false, "store the label document in the blob store")
	return cmd
}

func newItemExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the item table to the blob store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := exports.ParseFormat(format)
			if err != nil {
				return err
			}
			q, err := a.svc.Query(cmd.Context())
			if err != nil {
				return err
			}
			exporter, err := a.exportsFor(cmd.Context())
			if err != nil {
				return err
			}
			art, err := exporter.ExportItems(cmd.Context(), q, f)
			if err != nil {
				return err
			}
			a.printer.Success("exported %d items to %s", art.Rows, art.Key)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv, jsonl, json or html")
	return cmd
}

// resolveItem maps a generated code to the most recent item carrying it.
// Unknown arguments are returned unchanged for the service to reject.
func (a *app) resolveItem(cmd *cobra.Command, arg string) (string, error) {
	q, err := a.svc.Query(cmd.Context())
	if err != nil {
		return "", err
	}
	if _, ok := q.Find(arg); ok {
		return arg, nil
	}
	for _, item := range q.Items() {
		if item.GeneratedCode == arg {
			return item.ID, nil
		}
	}
	return arg, nil
}

func resolveRule(rules []core.EncodingRule, arg string) string {
	for _, rule := range rules {
		if rule.ID == arg {
			return arg
		}
	}
	for _, rule := range rules {
		if rule.Label == arg {
			return rule.ID
		}
	}
	return arg
}

func statusText(item core.LostItem) string {
	if item.Claimed() {
		return "已认领 (" + item.ClaimedBy + ")"
	}
	return "未认领"
}
