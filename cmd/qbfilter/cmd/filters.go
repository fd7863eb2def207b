package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/solatis/qbfilter/internal/core/api"
	"github.com/solatis/qbfilter/internal/types"
	"github.com/spf13/cobra"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage saved filters",
}

var filtersSaveCmd = &cobra.Command{
	Use:   "save NAME [filter.json]",
	Short: "Validate and store a filter",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runFiltersSave,
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters",
	Args:  cobra.NoArgs,
	RunE:  runFiltersList,
}

var filtersShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersShow,
}

var filtersDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersDelete,
}

var filtersApplyCmd = &cobra.Command{
	Use:   "apply ID",
	Short: "Translate a saved filter against a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersApply,
}

func init() {
	rootCmd.AddCommand(filtersCmd)
	filtersCmd.AddCommand(filtersSaveCmd, filtersListCmd, filtersShowCmd, filtersDeleteCmd, filtersApplyCmd)

	filtersShowCmd.Flags().StringP("output", "o", outputYAML, "output format (json, yaml)")
	filtersApplyCmd.Flags().StringP("table", "t", "", "table to select from (required)")
	filtersApplyCmd.Flags().StringP("output", "o", outputText, "output format (text, json, yaml)")
	_ = filtersApplyCmd.MarkFlagRequired("table")
}

// withStore runs fn against a service backed by the migrated database.
func withStore(cmd *cobra.Command, fn func(*api.FilterService) error) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	database, err := openDatabase(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer database.Close()

	service, err := newService(cfg, database, logger)
	if err != nil {
		return err
	}
	return fn(service)
}

// filterView is a saved filter with the creation time embedded in its ID.
type filterView struct {
	types.SavedFilter `yaml:",inline"`
	IDTime            string `json:"id_time,omitempty" yaml:"id_time,omitempty"`
}

func newFilterView(f *types.SavedFilter) filterView {
	v := filterView{SavedFilter: *f}
	if t := types.FilterIDTime(f.FilterID); !t.IsZero() {
		v.IDTime = t.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func parseID(arg string) (types.FilterID, error) {
	id, err := types.ParseFilterID(arg)
	if err != nil {
		return "", fmt.Errorf("invalid filter ID %q: %w", arg, err)
	}
	return id, nil
}

func runFiltersSave(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 2 {
		path = args[1]
	}
	payload, err := readPayload(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	return withStore(cmd, func(s *api.FilterService) error {
		id, err := s.SaveFilter(cmd.Context(), args[0], payload)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	})
}

func runFiltersList(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(s *api.FilterService) error {
		filters, err := s.ListFilters(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED")
		for _, f := range filters {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.FilterID, f.Name, f.CreatedAt)
		}
		return w.Flush()
	})
}

func runFiltersShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	return withStore(cmd, func(s *api.FilterService) error {
		f, err := s.GetFilter(cmd.Context(), id)
		if err != nil {
			return err
		}
		return writeValue(cmd.OutOrStdout(), output, newFilterView(f))
	})
}

func runFiltersDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	return withStore(cmd, func(s *api.FilterService) error {
		if err := s.DeleteFilter(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return nil
	})
}

func runFiltersApply(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	table, _ := cmd.Flags().GetString("table")
	output, _ := cmd.Flags().GetString("output")

	return withStore(cmd, func(s *api.FilterService) error {
		var q query
		q.SQL, q.Args, err = s.ApplyFilter(cmd.Context(), id, table)
		if err != nil {
			return err
		}
		return writeQuery(cmd.OutOrStdout(), output, q)
	})
}
