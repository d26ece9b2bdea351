package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotandev/solext/analytics"
)

var (
	batchesStore string
	batchesTag   string
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List archived analysis batches, or replay those under a tag",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := analytics.OpenStore(batchesStore)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if batchesTag != "" {
			batches, err := store.ResultsByTag(ctx, batchesTag)
			if err != nil {
				return err
			}
			if len(batches) == 0 {
				return fmt.Errorf("no batches tagged %q", batchesTag)
			}
			for _, b := range batches {
				fmt.Printf("batch %s (%s)\n", b.ID, b.CreatedAt.Format("2006-01-02 15:04:05"))
				analytics.PrintBatchReport(b.Tag, b.Results)
			}
			return nil
		}

		infos, err := store.Batches(ctx)
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Printf("%s  %-20s %4d slots  %s\n",
				info.ID, info.Tag, info.Count, info.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	batchesCmd.Flags().StringVar(&batchesStore, "store", "solext.db", "SQLite archive to read")
	batchesCmd.Flags().StringVar(&batchesTag, "tag", "", "replay every batch archived under this tag")
	rootCmd.AddCommand(batchesCmd)
}
