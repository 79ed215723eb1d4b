package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"market-sim/src/analysis"
	"market-sim/src/models"
)

// -----------------------------------------------------------------------------

func main() {
	args := os.Args[1:]

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: analyze <market-data-file.json>")
		os.Exit(1)
	}

	filePath := args[0]

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "File not found: %s\n", filePath)
		os.Exit(1)
	}

	// Missing arrays unmarshal to nil and degrade to a zero report.
	var export models.MExport
	if err := json.Unmarshal(data, &export); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse %s: %v\n", filePath, err)
		os.Exit(1)
	}

	report := analysis.Analyze(export, filepath.Base(filePath))
	fmt.Print(analysis.Render(report))
}
