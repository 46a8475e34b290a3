package commands

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/backoff"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ghivert/brioche/pkg/logger"
	"github.com/ghivert/brioche/pkg/postgres"
)

func init() {
	rootCmd.AddCommand(pingCmd)
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify a database is reachable",
	Long: `Attempts to connect to the configured database, retrying with
exponential backoff until the timeout elapses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL := viper.GetString("database-url")
		if databaseURL == "" {
			return errors.New("Must provide a database url")
		}

		timeout := viper.GetInt("timeout")
		if timeout == 0 {
			return errors.New("Must provide a non-zero timeout")
		}

		verbose := viper.GetBool("verbose")
		log := logger.NewLogger()

		e := backoff.ExecuteFunc(func(_ context.Context) error {
			db := postgres.NewDBFromURL(databaseURL, log, verbose)
			if err := db.Start(); err != nil {
				return err
			}

			log.Log("msg", "database is reachable")

			return db.Stop()
		})

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
		defer cancel()

		policy := backoff.NewExponential()
		return backoff.Retry(ctx, policy, e)
	},
}
