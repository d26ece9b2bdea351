package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dotandev/solext/analytics"
)

var matchersCmd = &cobra.Command{
	Use:   "matchers [table.yaml]",
	Short: "Show the built-in failure-matcher table, or validate one from a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(analytics.DefaultMatcherTable())
		}
		table, err := readMatcherTable(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: valid, version %s, %d matchers\n", args[0], table.Version, len(table.Matchers))
		return nil
	},
}

// readMatcherTable loads and validates a YAML matcher table from disk.
func readMatcherTable(path string) (*analytics.MatcherTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	table, err := analytics.LoadMatcherTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func init() {
	rootCmd.AddCommand(matchersCmd)
}
