package commands

import (
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ghivert/brioche/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   version.BinaryName,
	Short: "A typed PostgreSQL client",
	Long: `A typed client for PostgreSQL.

Queries are executed with positional parameters and every outcome is
reported as either a decoded row set with its count, or one of a closed set
of typed errors (constraint violations, named server errors, timeouts,
unavailable connections, rolled back transactions).`,
	Version: version.VersionString(),
}

func init() {
	viper.SetEnvPrefix("brioche")
	viper.AutomaticEnv()
	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Boolean flag to enable verbose logging")
	rootCmd.PersistentFlags().StringP("database-url", "d", "", "Connection string for a PostgreSQL instance")
	rootCmd.PersistentFlags().Int("timeout", 30, "Timeout in seconds applied to the whole operation")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("database-url", rootCmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

// Execute is the main entry point for our cobra commands
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
