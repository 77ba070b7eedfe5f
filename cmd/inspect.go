package cmd

import (
	"fmt"
	"time"

	"tracker-etl/internal/reader"
	"tracker-etl/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var previewRows int

var inspectCmd = &cobra.Command{
	Use:   "inspect [table]",
	Short: "List store tables, or preview one table through the read cache",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(viper.GetString("store"), connectTimeout())
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 0 {
			return listTables(st)
		}
		return previewTable(st, args[0])
	},
}

func listTables(st *store.Store) error {
	tables, err := st.ListTables()
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Println("Store is empty.")
		return nil
	}

	fmt.Printf("📋 %d tables in %s:\n", len(tables), st.Path)
	for _, t := range tables {
		stats, err := st.Stats(t)
		if err != nil {
			return err
		}
		fmt.Printf("  %-28s %8d rows, %d columns\n", t, stats.RowCount, stats.ColumnCount)
	}
	return nil
}

func previewTable(st *store.Store, table string) error {
	r := reader.New(st, cacheTTL())
	f, err := r.Table(table)
	if err != nil {
		return err
	}

	fmt.Printf("📋 %s: %d rows\n", table, f.Height())
	fmt.Println(joinCells(anyRow(f.Columns)))
	n := previewRows
	if n > f.Height() {
		n = f.Height()
	}
	for _, row := range f.Rows[:n] {
		fmt.Println(joinCells(row))
	}
	if n < f.Height() {
		fmt.Printf("... %d more rows\n", f.Height()-n)
	}
	return nil
}

func anyRow(cols []string) []any {
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

func joinCells(row []any) string {
	out := ""
	for i, v := range row {
		if i > 0 {
			out += " | "
		}
		if v == nil {
			out += "NULL"
			continue
		}
		out += fmt.Sprintf("%v", v)
	}
	return out
}

func cacheTTL() time.Duration {
	d, err := time.ParseDuration(viper.GetString("cache_ttl"))
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

func init() {
	RootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().IntVar(&previewRows, "rows", 10, "Number of rows to preview")
}
