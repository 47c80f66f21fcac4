// =============================================================================
// Vessel Flow Parser - Validate Command
// =============================================================================
//
// The 'validate' command decodes each input file and checks its header row
// against the fixed layout. No records are derived or emitted and no file is
// moved.
//
// COMMAND USAGE:
//   flowparser validate [files...]
//
// Without arguments every .xlsx and .csv file in the input directory is
// checked.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vitaliisumka/workbook-parser/internal/converter"
	"github.com/vitaliisumka/workbook-parser/pkg/utils"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check sheet headers without emitting records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(args []string, out, stderr io.Writer) error {
	mainConfig, logger, err := loadConfig(stderr)
	if err != nil {
		return err
	}

	inputFiles := args
	if len(inputFiles) == 0 {
		files := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir)
		inputFiles, err = files.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	failed := 0
	for _, file := range inputFiles {
		if err := converter.New(file, mainConfig, converter.WithLogger(logger)).Validate(); err != nil {
			failed++
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(file), err)
			continue
		}
		fmt.Fprintf(out, "  ✓ %s\n", filepath.Base(file))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) have an invalid header", failed, len(inputFiles))
	}
	return nil
}
