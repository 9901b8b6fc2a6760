package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/Coder-Joe458/ios-review-checker/internal/errors"
	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/report"
	"github.com/Coder-Joe458/ios-review-checker/pkg/review"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

var (
	checkName          string
	checkPrivacyPolicy bool
	checkUsesHTTPS     bool
	checkPermissions   string
	checkOriginalName  string
	checkFormat        string
	checkOutput        string
	checkIconOut       string
)

var checkCmd = &cobra.Command{
	Use:   "check [file.ipa]",
	Short: "Check an .ipa package or form answers against the review rules",
	Long: `Check an .ipa package against the review rules. Without a package, the
--privacy-policy, --uses-https and --permissions answers are evaluated instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkName, "name", "", "application name")
	checkCmd.Flags().BoolVar(&checkPrivacyPolicy, "privacy-policy", false, "the app has a privacy policy (used without a package)")
	checkCmd.Flags().BoolVar(&checkUsesHTTPS, "uses-https", false, "the app only uses HTTPS (used without a package)")
	checkCmd.Flags().StringVar(&checkPermissions, "permissions", "", "permissions as JSON")
	checkCmd.Flags().StringVar(&checkOriginalName, "original-name", "", "file name as uploaded; its extension decides the file-type rule")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "", "output format (text, json, yaml, pdf)")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "", "write the report to a file instead of stdout")
	checkCmd.Flags().StringVar(&checkIconOut, "icon-out", "", "write the decoded app icon as PNG to this path")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(outputFormat(checkFormat))
	if err != nil {
		return err
	}

	checker, err := newChecker(cmd.Context(), appConfig)
	if err != nil {
		return err
	}

	var resp *review.Response
	form, err := buildForm(cmd)
	if err != nil {
		resp = review.Failed(err)
	} else {
		req := review.Request{Form: form, Language: reportLanguage()}
		if len(args) == 1 {
			req.Upload = &review.Upload{Path: args[0], OriginalName: checkOriginalName}
		}

		result, err := checker.Check(cmd.Context(), req)
		if err != nil {
			resp = review.Failed(err)
		} else {
			resp = review.Succeeded(result)
			if checkIconOut != "" {
				writeIcon(result, checkIconOut)
			}
		}
	}

	w, closeOutput, err := openOutput(cmd, checkOutput)
	if err != nil {
		return err
	}
	if err := writeCheckResponse(w, resp, format, checker.Catalog()); err != nil {
		closeOutput()
		return err
	}
	if err := closeOutput(); err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("check failed [%s/%s]", resp.Type, resp.Code)
	}
	return nil
}

// buildForm turns the form flags into FormFacts. Unset yes/no flags stay nil.
func buildForm(cmd *cobra.Command) (models.FormFacts, error) {
	form := models.FormFacts{Name: strings.TrimSpace(checkName)}

	if cmd.Flags().Changed("privacy-policy") {
		v := checkPrivacyPolicy
		form.PrivacyPolicy = &v
	}
	if cmd.Flags().Changed("uses-https") {
		v := checkUsesHTTPS
		form.UsesHTTPS = &v
	}

	if raw := strings.TrimSpace(checkPermissions); raw != "" {
		var perms []models.Permission
		if err := json.Unmarshal([]byte(raw), &perms); err != nil {
			return form, apperrors.WrapError(err, apperrors.ErrorTypeValidation, apperrors.CodeInvalidForm,
				"permissions must be a JSON array of {name, description} objects").
				WithSuggestion(`Example: --permissions '[{"name":"camera","description":"Scan receipts"}]'`)
		}
		for i, p := range perms {
			if strings.TrimSpace(string(p.Kind)) == "" {
				return form, apperrors.NewValidationError(apperrors.CodeInvalidForm,
					fmt.Sprintf("permission %d has no name", i))
			}
		}
		form.Permissions = perms
	}
	return form, nil
}

func writeIcon(result *models.CheckResult, path string) {
	if len(result.Icon) == 0 {
		utils.Warn("No app icon could be decoded, %s not written", path)
		return
	}
	if err := os.WriteFile(path, result.Icon, 0644); err != nil {
		utils.Warn("Failed to write icon: %v", err)
		return
	}
	utils.Info("Icon written to %s", path)
}

func writeCheckResponse(w io.Writer, resp *review.Response, format report.Format, catalog *review.Catalog) error {
	tr := i18n.NewTranslator(reportLanguage())
	switch format {
	case report.FormatJSON:
		return report.WriteJSON(w, resp)
	case report.FormatYAML:
		return report.WriteYAML(w, resp)
	case report.FormatPDF:
		if !resp.Success {
			return report.WriteCheckText(w, resp, tr)
		}
		return report.WritePDF(w, resp.CheckResult, tr, report.PDFOptions{
			FontPath:      appConfig.Report.PDFFont,
			CatalogSHA256: catalog.SHA256,
		})
	default:
		return report.WriteCheckText(w, resp, tr)
	}
}
