package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/rob-core/internal/application/handlers"
	"github.com/ersonp/rob-core/internal/domain/ports"
	"github.com/ersonp/rob-core/internal/infrastructure/review"
)

func newUpdateCmd() *cobra.Command {
	var (
		saveCopy   bool
		autoAccept bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Merge pending report batches into the historical table",
		Long: "Fetches every raw batch announced by a changelog marker, resolves " +
			"finding places against the catalogue, and appends new record versions " +
			"to the historical table. Markers are removed once the table is committed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, saveCopy, autoAccept)
		},
	}

	cmd.Flags().BoolVar(&saveCopy, "save-copy", false, "Write a timestamped copy of the table before committing")
	cmd.Flags().BoolVarP(&autoAccept, "yes", "y", false, "Accept every proposed finding-place mapping without prompting")

	return cmd
}

func runUpdate(cmd *cobra.Command, saveCopy, autoAccept bool) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		var reviewer ports.Reviewer = review.NewConsole(os.Stdin, os.Stdout)
		if autoAccept {
			reviewer = review.AutoAccept{}
		}

		handler := handlers.NewUpdateHandler(d.Store, d.Source, reviewer, d.Logger)
		result, err := handler.Handle(ctx, handlers.UpdateOptions{SaveCopy: saveCopy})
		if err != nil {
			return err
		}

		if result.Batches == 0 {
			fmt.Println("No pending batches.")
			return nil
		}
		if !result.Committed {
			fmt.Printf("Processed %d batches, nothing new to commit.\n", result.Batches)
			return nil
		}

		fmt.Printf("Merged %d of %d batches (%d skipped).\n", result.Merged, result.Batches, result.Skipped)
		fmt.Printf("Added %d record versions, superseded %d.\n", result.Added, result.Superseded)
		return nil
	})
}
