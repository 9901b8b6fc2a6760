package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Coder-Joe458/ios-review-checker/internal/config"
	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
	"github.com/Coder-Joe458/ios-review-checker/pkg/report"
	"github.com/Coder-Joe458/ios-review-checker/pkg/system"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

var doctorFormat string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the local setup",
	Long: `The doctor command checks what ipacheck needs to run:

- Configuration file
- Rule catalog
- Temporary directory access and free space
- A UTF-8 font for PDF reports`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(outputFormat(doctorFormat))
		if err != nil {
			return err
		}
		utils.Info("Starting diagnostics...")

		var r system.Report
		r.Add(configCheck())
		r.Add(catalogCheck(cmd))
		r.Add(system.CheckTempDir(appConfig.Extraction.TempDir, appConfig.Extraction.MaxUncompressedBytes))
		r.Add(fontCheck())

		w := cmd.OutOrStdout()
		switch format {
		case report.FormatJSON:
			err = report.WriteJSON(w, r)
		case report.FormatYAML:
			err = report.WriteYAML(w, r)
		case report.FormatPDF:
			return fmt.Errorf("pdf output is only available for 'check'")
		default:
			writeDoctorText(cmd, r)
		}
		if err != nil {
			return err
		}

		if !r.Passed() {
			return fmt.Errorf("some checks failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringVarP(&doctorFormat, "format", "f", "", "output format (text, json, yaml)")
}

func configCheck() system.Check {
	c := system.Check{Name: "configuration", Status: system.StatusOK}
	if path := config.ConfigFileUsed(cfgFile); path != "" {
		c.Detail = path
	} else {
		c.Detail = "no config file, using defaults"
		c.Suggestion = "Run 'ipacheck init' to create one"
	}
	return c
}

func catalogCheck(cmd *cobra.Command) system.Check {
	c := system.Check{Name: "rule catalog"}
	catalog, err := loadCatalog(cmd.Context(), appConfig)
	if err != nil {
		c.Status = system.StatusFail
		c.Detail = err.Error()
		c.Suggestion = "Fix or unset review.rules_file"
		return c
	}
	c.Status = system.StatusOK
	c.Detail = fmt.Sprintf("%d rules, languages %s, sha256 %s",
		catalog.Total(), strings.Join(catalog.Languages(), "/"), catalog.SHA256)
	return c
}

func fontCheck() system.Check {
	c := system.Check{Name: "pdf font"}
	for _, p := range report.FontCandidates(appConfig.Report.PDFFont) {
		if _, err := os.Stat(p); err == nil {
			c.Status = system.StatusOK
			c.Detail = p
			return c
		}
	}
	c.Status = system.StatusWarn
	c.Detail = "no UTF-8 font found; non-Latin text in PDF reports becomes '?'"
	c.Suggestion = fmt.Sprintf("Set report.pdf_font or %s to a TrueType font", report.FontEnv)
	return c
}

func writeDoctorText(cmd *cobra.Command, r system.Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "🏥 ipacheck doctor")
	fmt.Fprintln(w, strings.Repeat("=", 50))

	for _, c := range r.Checks {
		icon := "✅"
		switch c.Status {
		case system.StatusWarn:
			icon = "⚠️ "
		case system.StatusFail:
			icon = "❌"
		}
		fmt.Fprintf(w, "%s %s: %s\n", icon, c.Name, c.Detail)
		if c.Suggestion != "" {
			fmt.Fprintf(w, "   💡 %s\n", c.Suggestion)
		}
	}

	fmt.Fprintln(w)
	if r.Passed() {
		fmt.Fprintf(w, "🎉 %s\n", i18n.T("doctor.passed"))
	} else {
		fmt.Fprintf(w, "❌ %s\n", i18n.T("doctor.failed"))
	}
}
