package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mkallio/gardenplan-go/cmd/cache"
	"github.com/mkallio/gardenplan-go/cmd/config"
	"github.com/mkallio/gardenplan-go/cmd/manual"
	"github.com/mkallio/gardenplan-go/cmd/resolve"
	"github.com/mkallio/gardenplan-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gardenplan",
		Short:   "GardenPlan species resolution CLI",
		Version: settings.Version,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		resolve.Command(settings),
		cache.Command(settings),
		manual.Command(settings),
		config.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Re-apply viper values so command-line flags take precedence over
		// the config file.
		return viper.Unmarshal(settings)
	}

	return rootCmd
}

// setupFlags defines global flags shared by all subcommands.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().IntVar(&settings.Species.CacheTTL, "cache-ttl", viper.GetInt("species.cachettl"), "Cache entry time-to-live in hours")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		cobra.CheckErr(err)
	}
	if err := viper.BindPFlag("species.cachettl", rootCmd.PersistentFlags().Lookup("cache-ttl")); err != nil {
		cobra.CheckErr(err)
	}
}
