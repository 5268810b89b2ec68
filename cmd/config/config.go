// Package config implements the "config" subcommand for inspecting and
// persisting the effective configuration.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkallio/gardenplan-go/internal/conf"
)

// Command creates the config command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and persist the effective configuration",
	}

	cmd.AddCommand(
		showCommand(settings),
		saveCommand(settings),
	)

	return cmd
}

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := conf.DumpYAML(settings)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func saveCommand(settings *conf.Settings) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to a config file",
		Long: `Write the effective configuration, defaults and flag overrides included,
to a config file. Without --path the first default config location is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				paths, err := conf.GetDefaultConfigPaths()
				if err != nil {
					return err
				}
				path = filepath.Join(paths[0], "config.yaml")
			}
			if err := conf.SaveSettings(settings, path); err != nil {
				return err
			}
			fmt.Println("Configuration written to:", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Target config file path")

	return cmd
}
