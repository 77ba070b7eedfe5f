package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var RootCmd = &cobra.Command{
	Use:   "tracker-etl",
	Short: "Spreadsheet pipeline into an embedded analytical store",
	Long: `
  _____ ____      _    ____ _  _______ ____     _____ _____ _
 |_   _|  _ \    / \  / ___| |/ / ____|  _ \   | ____|_   _| |
   | | | |_) |  / _ \| |   | ' /|  _| | |_) |__|  _|   | | | |
   | | |  _ <  / ___ \ |___| . \| |___|  _ <___| |___  | | | |___
   |_| |_| \_\/_/   \_\____|_|\_\_____|_| \_\  |_____| |_| |_____|

TRACKER-ETL - workbook extract/transform/load with validation and monitoring
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tracker.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().String("workbook", "", "path to the source workbook")
	RootCmd.PersistentFlags().String("store", "", "path to the store database file")

	viper.BindPFlag("workbook", RootCmd.PersistentFlags().Lookup("workbook"))
	viper.BindPFlag("store", RootCmd.PersistentFlags().Lookup("store"))

	// Fallbacks when no config file or flag is present.
	viper.SetDefault("workbook", "data/tracker.xlsx")
	viper.SetDefault("store", "data/tracker.duckdb")
	viper.SetDefault("pipeline_config", "configs/pipeline.yaml")
	viper.SetDefault("taxonomy", "configs/country_categories.yaml")
	viper.SetDefault("log_dir", "logs")
	viper.SetDefault("validation_report", "logs/validation_report.json")
	viper.SetDefault("backup_dir", "backups")
	viper.SetDefault("connect_timeout", "10s")
	viper.SetDefault("cache_ttl", "5m")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Executable directory first, then the working directory.
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("tracker")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
