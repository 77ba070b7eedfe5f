package cmd

import (
	"fmt"

	"tracker-etl/internal/validate"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the source workbook and pipeline config without running",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgPath, err := loadPipelineConfig()
		if err != nil {
			return err
		}

		v := validate.New(cfgPath)

		workbook := viper.GetString("workbook")
		srcMeta, err := v.ValidateSource(workbook)
		if err != nil {
			return err
		}
		if _, err := v.ValidateConfig(cfg); err != nil {
			return err
		}

		reportPath := viper.GetString("validation_report")
		if err := v.SaveReport(reportPath); err != nil {
			return err
		}

		fmt.Printf("🔍 Source OK: %s (%v bytes, hash %.12v...)\n",
			workbook, srcMeta["file_size"], srcMeta["file_hash"])
		fmt.Printf("Config OK: %d sheets configured, %d flagged for processing\n",
			len(cfg.Sheets), cfg.ReadCount())
		fmt.Printf("Validation report: %s\n", reportPath)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)
}
