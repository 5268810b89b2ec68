// Package resolve implements the "resolve" subcommand, which resolves one
// plant query through the full tier chain and prints the outcome.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/mkallio/gardenplan-go/internal/conf"
	"github.com/mkallio/gardenplan-go/internal/species"
)

// Command creates the resolve command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool
	var showMetrics bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "resolve <query>",
		Short: "Resolve a plant name to a species record",
		Long: `Resolve a free-text plant name to a species record, consulting the local
cache, the configured remote providers and the bundled dataset in order.
An unknown name exits with status 1 so scripts can detect it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(settings, strings.Join(args, " "), asJSON, showMetrics, timeout)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the resolution as JSON")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print resolution metrics after the result")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall resolution timeout")

	return cmd
}

func runResolve(settings *conf.Settings, query string, asJSON, showMetrics bool, timeout time.Duration) error {
	var registry *prometheus.Registry
	if showMetrics {
		registry = prometheus.NewRegistry()
	}

	service, err := species.NewService(settings, registry)
	if err != nil {
		return fmt.Errorf("failed to initialize resolver: %w", err)
	}
	defer func() {
		if closeErr := service.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", closeErr)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()

	resolution, err := service.Resolver.Resolve(ctx, query)
	if err != nil {
		return err
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(&resolution); err != nil {
			return err
		}
	} else {
		printResolution(&resolution)
	}

	if showMetrics {
		if err := printMetrics(registry); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to gather metrics: %v\n", err)
		}
	}

	if !resolution.Resolved {
		os.Exit(1)
	}
	return nil
}

func printMetrics(registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}

	fmt.Println()
	encoder := expfmt.NewEncoder(os.Stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return err
		}
	}
	return nil
}

func printResolution(res *species.Resolution) {
	if !res.Resolved {
		fmt.Printf("No match for %q (key %q); add it with 'gardenplan manual add'\n", res.Query, res.NormalizedKey)
		return
	}

	r := &res.Record
	fmt.Printf("%s", r.CommonName)
	if r.ScientificName != "" {
		fmt.Printf(" (%s)", r.ScientificName)
	}
	fmt.Printf("\n  type:    %s\n", r.PlantType)
	fmt.Printf("  light:   %s\n", valueOrDash(r.Requirements.Light))
	fmt.Printf("  water:   %s\n", valueOrDash(r.Requirements.Water))
	fmt.Printf("  soil:    %s\n", valueOrDash(r.Requirements.Soil))
	if r.Requirements.SpacingCM > 0 {
		fmt.Printf("  spacing: %d cm\n", r.Requirements.SpacingCM)
	}
	fmt.Printf("  source:  %s", res.Source)
	if res.Source == species.SourceCache && r.SourceTag != "" {
		fmt.Printf(" (originally %s)", r.SourceTag)
	}
	fmt.Println()
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
