package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/rob-core/internal/application/handlers"
	"github.com/ersonp/rob-core/internal/domain/entities"
)

type viewsFlags struct {
	from   string
	to     string
	format string
	output string
}

func newViewsCmd() *cobra.Command {
	var flags viewsFlags

	cmd := &cobra.Command{
		Use:   "views",
		Short: "Compute the dashboard views over the historical table",
		Long: "Derives the status breakdown, weekly admissions per species and " +
			"finding-place counts for a date window, either printed as tables " +
			"or exported as CSV files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViews(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.from, "from", "", "Window start, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.to, "to", "", "Window end, exclusive (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format (table, csv)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", ".", "Directory for CSV export")

	return cmd
}

func runViews(cmd *cobra.Command, flags viewsFlags) error {
	if flags.format != "table" && flags.format != "csv" {
		return fmt.Errorf("invalid format %q, valid formats: [table csv]", flags.format)
	}

	window, err := parseWindow(flags.from, flags.to)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		handler := handlers.NewViewsHandler(d.Store)
		result, err := handler.Handle(ctx, window)
		if err != nil {
			return err
		}

		if flags.format == "csv" {
			return exportViews(result, flags.output)
		}
		printViews(result)
		return nil
	})
}

// parseWindow builds the half-open window, leaving an end open when the
// corresponding flag is missing.
func parseWindow(from, to string) (entities.Window, error) {
	window := entities.Window{
		Min: time.Time{},
		Max: time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	var err error
	if from != "" {
		if window.Min, err = time.Parse("2006-01-02", from); err != nil {
			return entities.Window{}, fmt.Errorf("parsing --from %q: %w", from, err)
		}
	}
	if to != "" {
		if window.Max, err = time.Parse("2006-01-02", to); err != nil {
			return entities.Window{}, fmt.Errorf("parsing --to %q: %w", to, err)
		}
	}
	if !window.Min.Before(window.Max) {
		return entities.Window{}, fmt.Errorf("--from must be before --to")
	}
	return window, nil
}

func printViews(result *handlers.ViewsResult) {
	fmt.Println("Status breakdown:")
	if result.Breakdown.NoData {
		fmt.Println("  no data available")
	} else {
		for _, status := range entities.AllStatuses {
			fmt.Printf("  %-20s %d\n", status, result.Breakdown.Counts[status])
		}
		fmt.Printf("  %-20s %d\n", "total", result.Breakdown.Total)
	}

	fmt.Println("\nWeekly admissions:")
	if len(result.Weekly) == 0 {
		fmt.Println("  no data available")
	}
	for _, row := range result.Weekly {
		fmt.Printf("  %s  %-20s %d\n", row.WeekStart.Format("2006-01-02"), row.Species, row.Count)
	}

	fmt.Println("\nFinding places:")
	if len(result.Locations) == 0 {
		fmt.Println("  no data available")
	}
	for _, row := range result.Locations {
		fmt.Printf("  %-30s %d\n", row.Place, row.Count)
	}
}

func exportViews(result *handlers.ViewsResult, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	status := [][]string{{"status", "count"}}
	for _, s := range entities.AllStatuses {
		status = append(status, []string{string(s), strconv.Itoa(result.Breakdown.Counts[s])})
	}

	weekly := [][]string{{"week_start", "species", "count"}}
	for _, row := range result.Weekly {
		weekly = append(weekly, []string{
			row.WeekStart.Format("2006-01-02"),
			row.Species,
			strconv.Itoa(row.Count),
		})
	}

	locations := [][]string{{"place", "lat", "lon", "count"}}
	for _, row := range result.Locations {
		locations = append(locations, []string{
			row.Place,
			formatCoordinate(row.Lat),
			formatCoordinate(row.Lon),
			strconv.Itoa(row.Count),
		})
	}

	files := map[string][][]string{
		"status_breakdown.csv":  status,
		"weekly_admissions.csv": weekly,
		"location_counts.csv":   locations,
	}
	for name, rows := range files {
		if err := writeCSV(filepath.Join(dir, name), rows); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", filepath.Join(dir, name))
	}
	return nil
}

func writeCSV(path string, rows [][]string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// formatCoordinate renders NaN (the Unknown place) as an empty cell.
func formatCoordinate(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
