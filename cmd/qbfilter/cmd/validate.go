package cmd

import (
	"fmt"

	"github.com/solatis/qbfilter/internal/core/api"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var validateCmd = &cobra.Command{
	Use:   "validate [filter.json]",
	Short: "Check a filter without producing SQL",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("server", "", "validate on a remote server (host:port)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	serverAddr, _ := cmd.Flags().GetString("server")

	payload, err := readPayload(cmd.InOrStdin(), firstArg(args))
	if err != nil {
		return err
	}

	if serverAddr != "" {
		conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
		}
		defer conn.Close()
		err = api.NewFilterClient(conn).Validate(cmd.Context(), payload)
	} else {
		cfg, logger, serr := setup(cmd)
		if serr != nil {
			return serr
		}
		service, serr := newService(cfg, nil, logger)
		if serr != nil {
			return serr
		}
		err = service.Validate(cmd.Context(), payload)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
