package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
	"github.com/Coder-Joe458/ios-review-checker/pkg/report"
	"github.com/Coder-Joe458/ios-review-checker/pkg/scan"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

var (
	scanFormat    string
	scanOutput    string
	scanWorkers   int
	scanNoRecurse bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Check every .ipa package in a directory",
	Long:  `Walk a directory, check every matching package concurrently and print a summary.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(outputFormat(scanFormat))
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

		scanning := appConfig.Scanning
		if cmd.Flags().Changed("workers") {
			scanning.Workers = scanWorkers
		}
		if scanNoRecurse {
			scanning.Recursive = false
		}

		scanner := scan.NewScanner(scanning, checker, utils.GetGlobalLogger())
		opts := scan.Options{Language: reportLanguage()}
		if format == report.FormatText && scanOutput == "" {
			opts.Progress = utils.NewScanProgress(cmd.ErrOrStderr())
		}

		result, err := scanner.Scan(cmd.Context(), args[0], opts)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		if opts.Progress != nil && result.Summary.TotalFiles > 0 {
			opts.Progress.ShowFinalStats()
		}

		w, closeOutput, err := openOutput(cmd, scanOutput)
		if err != nil {
			return err
		}
		switch format {
		case report.FormatJSON:
			err = report.WriteJSON(w, result)
		case report.FormatYAML:
			err = report.WriteYAML(w, result)
		default:
			err = writeScanText(w, result)
		}
		if cerr := closeOutput(); err == nil {
			err = cerr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "output format (text, json, yaml)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write the report to a file instead of stdout")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", scan.DefaultWorkers, "packages checked in parallel")
	scanCmd.Flags().BoolVar(&scanNoRecurse, "no-recursive", false, "only scan the top-level directory")
}

func writeScanText(w io.Writer, result *scan.Result) error {
	if result.Summary.TotalFiles == 0 {
		fmt.Fprintln(w, i18n.T("scan.noFiles", map[string]interface{}{"Dir": result.Directory}))
		return nil
	}

	fmt.Fprintf(w, "%s\n\n", i18n.T("scan.found", map[string]interface{}{"N": result.Summary.TotalFiles}))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", i18n.T("scan.file"), i18n.T("scan.app"), i18n.T("scan.result"), i18n.T("scan.issues"))
	for _, f := range result.Files {
		rel, err := filepath.Rel(result.Directory, f.Path)
		if err != nil {
			rel = f.Path
		}

		resp := f.Response
		switch {
		case !resp.Success:
			fmt.Fprintf(tw, "%s\t-\t%s\t%s\n", rel, i18n.T("scan.failed"), resp.Code)
		case resp.HasIssues():
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", rel, resp.AppName, i18n.T("scan.withIssues"), len(resp.Issues))
		default:
			fmt.Fprintf(tw, "%s\t%s\t%s\t0\n", rel, resp.AppName, i18n.T("scan.compliant"))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := result.Summary
	fmt.Fprintf(w, "\n%s\n", i18n.T("scan.summary", map[string]interface{}{
		"Checked":    s.TotalFiles,
		"Compliant":  s.Compliant,
		"WithIssues": s.WithIssues,
		"Failed":     s.Failed,
	}))
	for _, werr := range result.WalkErrors {
		fmt.Fprintf(w, "⚠️  %s\n", werr)
	}
	return nil
}
