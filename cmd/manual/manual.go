// Package manual implements the "manual" subcommand for adding user-supplied
// species records when no provider knows a plant.
package manual

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkallio/gardenplan-go/internal/conf"
	"github.com/mkallio/gardenplan-go/internal/species"
)

// Command creates the manual command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Manage user-supplied species records",
	}

	cmd.AddCommand(addCommand(settings))

	return cmd
}

func addCommand(settings *conf.Settings) *cobra.Command {
	var (
		entry species.ManualEntry
		query string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a species record by hand",
		Long: `Add a species record for a plant no provider recognizes. The record is
cached under its common name, so later resolves find it immediately. Pass
--query to also cache it under the lookup text that originally failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(settings, query, &entry)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Failed lookup text to cache the record under")
	cmd.Flags().StringVar(&entry.CommonName, "name", "", "Common name (required)")
	cmd.Flags().StringVar(&entry.ScientificName, "scientific", "", "Scientific name")
	cmd.Flags().StringVar(&entry.PlantType, "type", "", "Plant type (tree, shrub, perennial, annual, ground-cover)")
	cmd.Flags().StringVar(&entry.Requirements.Light, "light", "", "Light requirement")
	cmd.Flags().StringVar(&entry.Requirements.Water, "water", "", "Water requirement")
	cmd.Flags().StringVar(&entry.Requirements.Soil, "soil", "", "Soil requirement")
	cmd.Flags().IntVar(&entry.Requirements.SpacingCM, "spacing", 0, "Plant spacing in centimeters")

	if err := cmd.MarkFlagRequired("name"); err != nil {
		cobra.CheckErr(err)
	}

	return cmd
}

func runAdd(settings *conf.Settings, query string, entry *species.ManualEntry) error {
	service, err := species.NewService(settings, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() { _ = service.Close() }()

	record, err := service.Resolver.CreateManual(query, *entry)
	if err != nil {
		return err
	}

	fmt.Printf("Added %q (%s) as %s\n", record.CommonName, record.PlantType, record.ID)
	return nil
}
