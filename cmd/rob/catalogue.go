package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/rob-core/internal/domain/entities"
)

func newCatalogueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Manage the confirmed finding places",
	}

	cmd.AddCommand(
		newCatalogueListCmd(),
		newCatalogueAddCmd(),
	)

	return cmd
}

func newCatalogueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all catalogued finding places",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				catalogue, err := d.Store.LoadCatalogue(cmd.Context())
				if err != nil {
					return fmt.Errorf("loading catalogue: %w", err)
				}
				if len(catalogue) == 0 {
					fmt.Println("Catalogue is empty.")
					return nil
				}

				for _, entry := range catalogue {
					if entry.HasCoordinates() {
						fmt.Printf("%-30s %9.4f %9.4f\n", entry.Name, entry.Lat, entry.Lon)
					} else {
						fmt.Printf("%-30s %9s %9s\n", entry.Name, "-", "-")
					}
				}
				return nil
			})
		},
	}
}

func newCatalogueAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <lat> <lon>",
		Short: "Add a confirmed finding place",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("place name must not be empty")
			}

			lat, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parsing latitude %q: %w", args[1], err)
			}
			lon, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("parsing longitude %q: %w", args[2], err)
			}
			if math.IsNaN(lat) || math.IsNaN(lon) {
				return fmt.Errorf("coordinates must be numbers")
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				ctx := cmd.Context()

				catalogue, err := d.Store.LoadCatalogue(ctx)
				if err != nil {
					return fmt.Errorf("loading catalogue: %w", err)
				}
				for _, entry := range catalogue {
					if entry.Name == name {
						return fmt.Errorf("place %q is already catalogued", name)
					}
				}

				catalogue = append(catalogue, entities.CatalogueEntry{Name: name, Lat: lat, Lon: lon})
				sort.Slice(catalogue, func(i, j int) bool {
					return catalogue[i].Name < catalogue[j].Name
				})

				if err := d.Store.SaveCatalogue(ctx, catalogue); err != nil {
					return fmt.Errorf("saving catalogue: %w", err)
				}
				fmt.Printf("Added %s (%.4f, %.4f)\n", name, lat, lon)
				return nil
			})
		},
	}
}
