package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"tracker-etl/internal/seed"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var seedOut string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a demo workbook matching the bundled pipeline config",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := seedOut
		if out == "" {
			out = viper.GetString("workbook")
		}
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}
		}
		if err := seed.Generate(out); err != nil {
			return err
		}
		fmt.Printf("Demo workbook written: %s (%d donors, %d months)\n",
			out, len(seed.Donors), len(seed.Months))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedOut, "out", "", "Output path (defaults to the configured workbook path)")
}
