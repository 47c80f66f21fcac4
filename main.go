// =============================================================================
// Vessel Flow Parser - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Vessel Flow Parser CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   flowparser process       - Process all sheets in the input directory
//   flowparser validate      - Check sheet headers without processing
//   flowparser schema        - Print the XSD of the XML record documents
//   flowparser version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/                : CLI command definitions (Cobra)
//   - internal/flow       : Column layout and record derivation
//   - internal/converter  : Per-file pipeline from sheet to sink
//   - internal/sink, xmlwriter, store/sqlite : Record sinks
//   - pkg/utils           : File discovery, archival and run reports
//
// =============================================================================

package main

import (
	"github.com/vitaliisumka/workbook-parser/cmd"
)

func main() {
	cmd.Execute()
}
