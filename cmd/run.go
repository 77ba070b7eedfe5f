package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tracker-etl/internal/monitor"
	"tracker-etl/internal/pipeline"
	"tracker-etl/internal/store"
	"tracker-etl/internal/validate"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fresh bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline against the configured workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := slog.Default()

		cfg, cfgPath, err := loadPipelineConfig()
		if err != nil {
			return err
		}
		taxonomy, err := loadTaxonomy()
		if err != nil {
			return err
		}

		storePath := viper.GetString("store")
		if dir := filepath.Dir(storePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create store dir: %w", err)
			}
		}
		st, err := store.Open(storePath, connectTimeout())
		if err != nil {
			return err
		}
		defer st.Close()

		fmt.Printf("🦆 Connected to store %s\n", storePath)

		if fresh {
			log.Info("dropping all store tables before run")
			if err := st.DropAll(); err != nil {
				return err
			}
		}

		mon, err := monitor.New(viper.GetString("log_dir"), log)
		if err != nil {
			return err
		}

		run := &pipeline.Run{
			Pipeline:     cfg,
			Taxonomy:     taxonomy,
			WorkbookPath: viper.GetString("workbook"),
			Store:        st,
			Monitor:      mon,
			Validator:    validate.New(cfgPath),
			Quality:      validate.NewQualityMonitor(),
			Log:          log,
		}

		log.Info("starting pipeline", "run_id", mon.RunID, "plan", run.Describe())
		start := time.Now()

		uiprogress.Start()
		bar := uiprogress.AddBar(cfg.ReadCount()).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Sheets: "
		})

		results, logPath, runErr := run.Execute(func() {
			bar.Incr()
		})

		uiprogress.Stop()

		if reportErr := run.Validator.SaveReport(viper.GetString("validation_report")); reportErr != nil {
			log.Error("failed to write validation report", "error", reportErr)
			if runErr == nil {
				runErr = reportErr
			}
		}

		elapsed := time.Since(start)

		fmt.Println("\n📊 Summary Report (sheet order):")
		total := 0
		for i, r := range results {
			icon := "✓"
			if r.Status != "OK" {
				icon = "!"
			}
			fmt.Printf("[%s] [%02d/%02d] %-24s -> %-24s : %d rows - %s\n",
				icon, i+1, len(results), r.Sheet, r.Table, r.Rows, r.Status)
			if r.ErrorMsg != "" {
				fmt.Printf("    └ Error: %s\n", r.ErrorMsg)
			}
			total += r.Rows
		}
		summary := mon.Summary()
		fmt.Println("--------------------------------------------------")
		fmt.Printf("Steps: %d total, %d ok, %d failed | Rows loaded: %d\n",
			summary.TotalSteps, summary.SuccessfulSteps, summary.FailedSteps, total)
		if logPath != "" {
			fmt.Printf("Execution log: %s\n", logPath)
		}
		log.Info("pipeline finished", "elapsed", elapsed.String(), "status", summary.Status)

		return runErr
	},
}

func init() {
	RootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&fresh, "fresh", false, "Drop every store table before running")
}
