package cmd

import (
	"fmt"

	"tracker-etl/internal/backup"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	backupTag     string
	skipWorkbook  bool
	skipStoreCopy bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create timestamped copies of the store and the source workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := backup.New(viper.GetString("backup_dir"))
		if err != nil {
			return err
		}

		if !skipStoreCopy {
			path, err := mgr.BackupStore(viper.GetString("store"), backupTag)
			if err != nil {
				return err
			}
			fmt.Printf("Store backup:    %s\n", path)
		}
		if !skipWorkbook {
			path, err := mgr.BackupWorkbook(viper.GetString("workbook"), backupTag)
			if err != nil {
				return err
			}
			fmt.Printf("Workbook backup: %s\n", path)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVar(&backupTag, "tag", "snapshot", "Version tag embedded in backup file names")
	backupCmd.Flags().BoolVar(&skipWorkbook, "skip-workbook", false, "Only back up the store")
	backupCmd.Flags().BoolVar(&skipStoreCopy, "skip-store", false, "Only back up the workbook")
}
