package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

func newHistoryCmd() *cobra.Command {
	var (
		recordID string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the historical record table",
		Long: "Shows the current state of every tracked animal, the full version " +
			"chain of a single record, or every stored row.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, recordID, all)
		},
	}

	cmd.Flags().StringVarP(&recordID, "record", "r", "", "Show all versions of one record")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show every row, superseded versions included")

	return cmd
}

func runHistory(cmd *cobra.Command, recordID string, all bool) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		history, err := d.Store.LoadHistory(ctx)
		if err != nil {
			return fmt.Errorf("loading historical table: %w", err)
		}
		if len(history) == 0 {
			fmt.Println("Historical table is empty.")
			return nil
		}

		switch {
		case recordID != "":
			return printVersionChain(history, recordID)
		case all:
			printRows(history)
		default:
			printRows(currentRows(history))
		}
		return nil
	})
}

func printVersionChain(history []entities.HistoricalRecord, recordID string) error {
	var versions []entities.HistoricalRecord
	for _, row := range history {
		if row.RecordID == recordID {
			versions = append(versions, row)
		}
	}
	if len(versions) == 0 {
		return fmt.Errorf("record not found: %s", recordID)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].UpdatedAt.Before(versions[j].UpdatedAt)
	})
	printRows(versions)
	return nil
}

func currentRows(history []entities.HistoricalRecord) []entities.HistoricalRecord {
	var current []entities.HistoricalRecord
	for _, row := range history {
		if row.Current() {
			current = append(current, row)
		}
	}
	sort.Slice(current, func(i, j int) bool {
		return current[i].RecordID < current[j].RecordID
	})
	return current
}

func printRows(rows []entities.HistoricalRecord) {
	for _, row := range rows {
		marker := " "
		if row.IsDeleted {
			marker = "x"
		}
		fmt.Printf("%s %s  %s  %-25s %-12s %-18s updated %s\n",
			marker,
			shortID(row.RecordID),
			row.AdmissionDate.Format("2006-01-02"),
			row.MappedFindingPlace,
			row.Species,
			row.Status,
			row.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
