package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/solatis/qbfilter/internal/rules"
	"github.com/spf13/cobra"
)

var operatorsCmd = &cobra.Command{
	Use:   "operators",
	Short: "List supported filter operators",
	Args:  cobra.NoArgs,
	RunE:  runOperators,
}

func init() {
	rootCmd.AddCommand(operatorsCmd)
	operatorsCmd.Flags().StringP("output", "o", outputText, "output format (text, json, yaml)")
}

// operatorInfo describes an operator for listing.
type operatorInfo struct {
	Name    string   `json:"name" yaml:"name"`
	SQL     string   `json:"sql" yaml:"sql"`
	Value   bool     `json:"accepts_value" yaml:"accepts_value"`
	Types   []string `json:"types" yaml:"types"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

func runOperators(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	var infos []operatorInfo
	for _, name := range rules.OperatorNames() {
		spec, _ := rules.Lookup(name)
		info := operatorInfo{
			Name:  name,
			SQL:   spec.Symbol.String(),
			Value: spec.AcceptsValue,
		}
		for _, c := range spec.AppliesTo {
			info.Types = append(info.Types, c.String())
		}
		if spec.Prefix != "" || spec.Suffix != "" {
			info.Pattern = spec.Prefix + "value" + spec.Suffix
		}
		infos = append(infos, info)
	}

	if output != outputText {
		return writeValue(cmd.OutOrStdout(), output, infos)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATOR\tSQL\tVALUE\tTYPES")
	for _, info := range infos {
		sql := info.SQL
		if info.Pattern != "" {
			sql += " " + info.Pattern
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", info.Name, sql, info.Value, strings.Join(info.Types, ","))
	}
	return w.Flush()
}
