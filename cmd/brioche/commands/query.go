package commands

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ghivert/brioche/pkg/logger"
	"github.com/ghivert/brioche/pkg/postgres"
)

func init() {
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query SQL [PARAM...]",
	Short: "Execute a query and print the decoded rows",
	Long: `Executes the given SQL against the configured database, passing any
remaining arguments as positional parameters, and prints the decoded rows
along with the row count as JSON. Failures are reported by their typed
variant.`,
	Args: cobra.MinimumNArgs(1),
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

		db := postgres.NewDBFromURL(databaseURL, log, verbose)
		if err := db.Start(); err != nil {
			return err
		}
		defer db.Stop()

		params := make([]interface{}, len(args)-1)
		for i, arg := range args[1:] {
			params[i] = arg
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
		defer cancel()

		ctx = logger.ToContext(ctx, log)

		ret, err := postgres.QueryMaps(ctx, db, args[0], params...)
		if err != nil {
			log.Log("msg", "query failed", "variant", variant(err), "err", err)
			return err
		}

		out := struct {
			Rows  []map[string]interface{} `json:"rows"`
			Count int64                    `json:"count"`
		}{
			Rows:  presentable(ret.Rows),
			Count: ret.Count,
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// presentable converts raw []byte column values into strings so the JSON
// output shows text rather than base64.
func presentable(rows []map[string]interface{}) []map[string]interface{} {
	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}
	return rows
}

// variant names the typed error category for log output.
func variant(err error) string {
	var (
		constraintErr *postgres.ConstraintError
		serverErr     *postgres.ServerError
		resultErr     *postgres.ResultError
		rollbackErr   *postgres.RollbackError
	)

	switch {
	case errors.Is(err, postgres.ErrQueryTimeout):
		return "query_timeout"
	case errors.Is(err, postgres.ErrConnectionUnavailable):
		return "connection_unavailable"
	case errors.As(err, &constraintErr):
		return "constraint_violated"
	case errors.As(err, &serverErr):
		return "server_error"
	case errors.As(err, &resultErr):
		return "unexpected_result_type"
	case errors.As(err, &rollbackErr):
		return "transaction_rolled_back"
	}

	return "unclassified"
}
