package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/report"
)

var rulesFormat string

// rulesListing is the machine-readable rules output
type rulesListing struct {
	Language string        `json:"language"`
	SHA256   string        `json:"sha256"`
	Rules    []models.Rule `json:"rules"`
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the review rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(outputFormat(rulesFormat))
		if err != nil {
			return err
		}

		catalog, err := loadCatalog(cmd.Context(), appConfig)
		if err != nil {
			return err
		}

		lang := i18n.Code(i18n.CurrentLanguage())
		listing := rulesListing{Language: lang, SHA256: catalog.SHA256, Rules: catalog.Rules(lang)}

		w := cmd.OutOrStdout()
		switch format {
		case report.FormatJSON:
			return report.WriteJSON(w, listing)
		case report.FormatYAML:
			return report.WriteYAML(w, listing)
		case report.FormatPDF:
			return fmt.Errorf("pdf output is only available for 'check'")
		default:
			return report.WriteRulesText(w, listing.Rules, i18n.NewTranslator(lang))
		}
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVarP(&rulesFormat, "format", "f", "", "output format (text, json, yaml)")
}
