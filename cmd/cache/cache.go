// Package cache implements the "cache" subcommand tree for inspecting and
// invalidating the durable species cache.
package cache

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkallio/gardenplan-go/internal/conf"
	"github.com/mkallio/gardenplan-go/internal/datastore"
	"github.com/mkallio/gardenplan-go/internal/species"
)

// Command creates the cache command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the species cache",
	}

	cmd.AddCommand(
		statsCommand(settings),
		invalidateCommand(settings),
	)

	return cmd
}

func statsCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached species entries and their freshness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(settings)
		},
	}
}

func invalidateCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <query>",
		Short: "Drop the cached record for a plant name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvalidate(settings, strings.Join(args, " "))
		},
	}
}

func runStats(settings *conf.Settings) error {
	if !settings.Output.SQLite.Enabled {
		return fmt.Errorf("no durable cache configured (output.sqlite.enabled is false)")
	}

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.GetAllSpeciesCaches()
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("Cache is empty")
		return nil
	}

	now := time.Now()
	stale := 0

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tSOURCE\tAGE\tSTATE")
	for i := range entries {
		e := &entries[i]
		state := "fresh"
		if e.Expired(now) {
			state = "stale"
			stale++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.NormalizedKey,
			e.CommonName,
			e.SourceTag,
			now.Sub(e.FetchedAt).Round(time.Minute),
			state)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d entries, %d stale\n", len(entries), stale)
	return nil
}

func runInvalidate(settings *conf.Settings, query string) error {
	service, err := species.NewService(settings, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() { _ = service.Close() }()

	service.Resolver.Invalidate(query)
	fmt.Printf("Invalidated cache entry for %q\n", query)
	return nil
}
