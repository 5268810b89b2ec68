// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "GardenPlan")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/gardenplan.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("species.debug", false)
	viper.SetDefault("species.cachettl", 14*24) // hours
	viper.SetDefault("species.backgroundrefresh", false)

	viper.SetDefault("species.floralis.enabled", true)
	viper.SetDefault("species.floralis.endpoint", "https://api.floralis.org/v1")
	viper.SetDefault("species.floralis.apikey", "")
	viper.SetDefault("species.floralis.timeout", 10)
	viper.SetDefault("species.floralis.maxretries", 1)

	viper.SetDefault("species.openplantbook.enabled", true)
	viper.SetDefault("species.openplantbook.endpoint", "https://open.plantbook.io/api/v1")
	viper.SetDefault("species.openplantbook.apikey", "")
	viper.SetDefault("species.openplantbook.timeout", 10)
	viper.SetDefault("species.openplantbook.maxretries", 1)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "gardenplan.db")
}
