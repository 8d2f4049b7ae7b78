package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lostfound/pkg/domain"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the whole state document",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "export [file]",
			Short: "Write the state document to file or stdout",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				data, err := domain.EncodeSnapshot(a.svc.ExportSnapshot())
				if err != nil {
					return err
				}
				if len(args) == 0 {
					_, err = fmt.Fprintln(a.stdout, string(data))
					return err
				}
				if err := os.WriteFile(args[0], data, 0o644); err != nil {
					return fmt.Errorf("write snapshot: %w", err)
				}
				a.printer.Success("snapshot written to %s", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Replace the state with a document",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read snapshot: %w", err)
				}
				snap, err := domain.DecodeSnapshot(data)
				if err != nil {
					return err
				}
				if err := a.svc.ImportSnapshot(snap); err != nil {
					return err
				}
				a.printer.Success("imported %d categories and %d items", len(snap.Categories), len(snap.LostItems))
				return nil
			},
		},
	)
	return cmd
}
