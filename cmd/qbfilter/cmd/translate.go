package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/solatis/qbfilter/internal/core/api"
	"github.com/solatis/qbfilter/internal/core/config"
	"github.com/solatis/qbfilter/internal/core/db"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var translateCmd = &cobra.Command{
	Use:   "translate [filter.json]",
	Short: "Translate a filter into a SELECT statement",
	Long: `Reads a QueryBuilder filter from the given file, or stdin, and prints
"SELECT * FROM <table> WHERE ..." with its bound arguments.

With --server the translation runs on a remote qbfilter serve instance.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().StringP("table", "t", "", "table to select from (required)")
	translateCmd.Flags().StringP("output", "o", outputText, "output format (text, json, yaml)")
	translateCmd.Flags().String("server", "", "translate on a remote server (host:port)")
	_ = translateCmd.MarkFlagRequired("table")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	table, _ := cmd.Flags().GetString("table")
	output, _ := cmd.Flags().GetString("output")
	serverAddr, _ := cmd.Flags().GetString("server")

	payload, err := readPayload(cmd.InOrStdin(), firstArg(args))
	if err != nil {
		return err
	}

	var q query
	if serverAddr != "" {
		q.SQL, q.Args, err = translateRemote(ctx, serverAddr, table, payload)
	} else {
		q.SQL, q.Args, err = translateLocal(cmd, table, payload)
	}
	if err != nil {
		return err
	}

	return writeQuery(cmd.OutOrStdout(), output, q)
}

func translateLocal(cmd *cobra.Command, table string, payload []byte) (string, []any, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return "", nil, err
	}
	service, err := newService(cfg, nil, logger)
	if err != nil {
		return "", nil, err
	}
	return service.Translate(cmd.Context(), table, payload)
}

func translateRemote(ctx context.Context, addr, table string, payload []byte) (string, []any, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return "", nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	return api.NewFilterClient(conn).Translate(ctx, table, payload)
}

// newService builds a filter service from cfg. Saved filter operations are
// available only when database is non-nil.
func newService(cfg *config.Config, database *sqlx.DB, logger zerolog.Logger) (*api.FilterService, error) {
	engine, err := cfg.Translator.NewEngine(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	var store api.Store
	if database != nil {
		queries, err := db.LoadQueries(database)
		if err != nil {
			return nil, fmt.Errorf("failed to load queries: %w", err)
		}
		store = db.NewFilterStore(queries, engine)
	}

	return api.NewFilterService(engine, store, cfg, logger)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
