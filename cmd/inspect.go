package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
	"github.com/Coder-Joe458/ios-review-checker/pkg/report"
	"github.com/Coder-Joe458/ios-review-checker/pkg/review"
)

var (
	inspectFormat string
	inspectOutput string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.ipa>",
	Short: "Show the structure of an .ipa package",
	Long: `List the entries of an .ipa package, summarize file types and read the
application identifiers without extracting the archive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(outputFormat(inspectFormat))
		if err != nil {
			return err
		}
		if format == report.FormatPDF {
			return fmt.Errorf("pdf output is only available for 'check'")
		}

		checker, err := newChecker(cmd.Context(), appConfig)
		if err != nil {
			return err
		}

		var resp *review.Response
		inv, err := checker.Structure(cmd.Context(), review.Upload{Path: args[0]})
		if err != nil {
			resp = review.Failed(err)
		} else {
			resp = review.StructureSucceeded(inv)
		}

		w, closeOutput, err := openOutput(cmd, inspectOutput)
		if err != nil {
			return err
		}
		switch format {
		case report.FormatJSON:
			err = report.WriteJSON(w, resp)
		case report.FormatYAML:
			err = report.WriteYAML(w, resp)
		default:
			err = report.WriteStructureText(w, resp, i18n.NewTranslator(reportLanguage()))
		}
		if cerr := closeOutput(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}

		if !resp.Success {
			return fmt.Errorf("inspect failed [%s/%s]", resp.Type, resp.Code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "", "output format (text, json, yaml)")
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "write the report to a file instead of stdout")
}
