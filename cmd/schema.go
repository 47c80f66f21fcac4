package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vitaliisumka/workbook-parser/internal/xmlwriter"
)

// schemaCmd prints the XSD describing the documents written by the XML sink.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the XSD for the XML record documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		xsd, err := xmlwriter.GenerateXSD(xmlwriter.DefaultGenerateOptions())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(xsd)
		return err
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
