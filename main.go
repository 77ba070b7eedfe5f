package main

import (
	"tracker-etl/cmd"

	_ "github.com/marcboeker/go-duckdb/v2"
)

func main() {
	cmd.Execute()
}
