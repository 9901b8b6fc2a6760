package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
)

// FontEnv names a TrueType font used for non-Latin report text
const FontEnv = "IPACHECK_PDF_FONT"

// PDFOptions configures WritePDF
type PDFOptions struct {
	// FontPath is tried before FontEnv and the platform fonts
	FontPath      string
	GeneratedAt   time.Time
	CatalogSHA256 string
}

// WritePDF renders a check result as a one-document PDF report. Without a
// usable UTF-8 font, non-ASCII text is replaced with '?'.
func WritePDF(w io.Writer, result *models.CheckResult, tr Localizer, opts PDFOptions) error {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle(tr.T("report.title"), true)
	pdf.SetCreationDate(opts.GeneratedAt)

	family, utf8OK := initFont(pdf, opts.FontPath)
	pdf.AddPage()

	if len(result.Icon) > 0 {
		imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("icon", imgOpts, bytes.NewReader(result.Icon))
		if pdf.Err() {
			// A broken icon should not cost the report
			pdf.ClearError()
		} else {
			pdf.ImageOptions("icon", 176, 12, 20, 20, false, imgOpts, 0, "")
		}
	}

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 9, safeText(tr.T("report.title"), utf8OK), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s: %s", safeText(tr.T("report.generated"), utf8OK),
		opts.GeneratedAt.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	kv(pdf, family, utf8OK, tr.T("report.app"), result.AppName)
	kv(pdf, family, utf8OK, tr.T("report.bundleId"), result.BundleID)
	kv(pdf, family, utf8OK, tr.T("report.version"), result.Version)
	if result.IPAInfo != nil {
		kv(pdf, family, utf8OK, tr.T("report.minimumOS"), result.IPAInfo.MinimumOSVersion)
	}
	kv(pdf, family, utf8OK, tr.T("report.passed"), fmt.Sprintf("%d/%d", result.PassedRules, result.TotalRules))
	kv(pdf, family, utf8OK, tr.T("report.passRate"), fmt.Sprintf("%.0f%%", result.PassRate()*100))
	if opts.CatalogSHA256 != "" {
		kv(pdf, family, utf8OK, tr.T("report.catalog"), opts.CatalogSHA256)
	}
	pdf.Ln(2)

	sectionTitle(pdf, family, safeText(tr.T("report.issues"), utf8OK))
	if len(result.Issues) == 0 {
		pdf.SetFont(family, "", 10)
		pdf.MultiCell(0, 5.2, safeText(tr.T("report.noIssues"), utf8OK), "", "L", false)
	}
	for i, issue := range result.Issues {
		setSeverityColor(pdf, issue.Severity)
		pdf.SetFont(family, "B", 10)
		title := fmt.Sprintf("%d. [%s] %s", i+1, severityLabel(issue.Severity, tr), issue.Message)
		pdf.MultiCell(0, 5.6, safeText(title, utf8OK), "", "L", false)
		pdf.SetTextColor(40, 40, 40)
		pdf.SetFont(family, "", 9.5)
		pdf.MultiCell(0, 5, safeText(issue.Details, utf8OK), "", "L", false)
		pdf.Ln(1.5)
	}

	if len(result.Recommendations) > 0 {
		pdf.Ln(2)
		sectionTitle(pdf, family, safeText(tr.T("report.recommendations"), utf8OK))
		pdf.SetFont(family, "", 10)
		for _, rec := range result.Recommendations {
			pdf.MultiCell(0, 5.2, safeText("- "+rec, utf8OK), "", "L", false)
		}
	}

	if result.Facts != nil && len(result.Facts.Permissions) > 0 {
		pdf.Ln(2)
		sectionTitle(pdf, family, safeText(tr.T("report.permissions"), utf8OK))
		for _, p := range result.Facts.Permissions {
			desc := strings.TrimSpace(p.Description)
			if desc == "" {
				desc = tr.T("report.undescribed")
			}
			kv(pdf, family, utf8OK, string(p.Kind), desc)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// FontCandidates lists the font files WritePDF tries, in order
func FontCandidates(preferred string) []string {
	var candidates []string
	for _, p := range []string{preferred, os.Getenv(FontEnv)} {
		if p = strings.TrimSpace(p); p != "" {
			candidates = append(candidates, p)
		}
	}

	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates,
			"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
			"/Library/Fonts/Arial Unicode.ttf",
		)
	case "windows":
		candidates = append(candidates,
			`C:\Windows\Fonts\arialuni.ttf`,
			`C:\Windows\Fonts\simhei.ttf`,
		)
	default:
		candidates = append(candidates,
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/arphic/uming.ttf",
			"/usr/share/fonts/truetype/wqy/wqy-microhei.ttf",
		)
	}
	return candidates
}

// initFont registers the first usable UTF-8 font, or falls back to Helvetica
func initFont(pdf *gofpdf.Fpdf, preferred string) (family string, utf8OK bool) {
	const familyName = "unicode"

	for _, p := range FontCandidates(preferred) {
		if _, err := os.Stat(p); err != nil {
			continue
		}

		pdf.AddUTF8Font(familyName, "", p)
		if pdf.Err() {
			pdf.ClearError()
			continue
		}
		// Bold reuses the same file so SetFont(..., "B", ...) works
		pdf.AddUTF8Font(familyName, "B", p)
		if pdf.Err() {
			pdf.ClearError()
		}
		return familyName, true
	}

	return "Helvetica", false
}

func sectionTitle(pdf *gofpdf.Fpdf, family, title string) {
	pdf.SetFont(family, "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdf.GetX(), pdf.GetY(), 196, pdf.GetY())
	pdf.Ln(2)
}

func kv(pdf *gofpdf.Fpdf, family string, utf8OK bool, key, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	pdf.SetFont(family, "B", 10)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(40, 5.2, safeText(key, utf8OK)+":", "", 0, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 5.2, safeText(value, utf8OK), "", "L", false)
}

func setSeverityColor(pdf *gofpdf.Fpdf, s models.Severity) {
	switch s {
	case models.SeverityHigh:
		pdf.SetTextColor(180, 30, 30)
	case models.SeverityMedium:
		pdf.SetTextColor(190, 110, 0)
	default:
		pdf.SetTextColor(40, 40, 40)
	}
}

// safeText flattens whitespace and, without a UTF-8 font, replaces non-ASCII runes
func safeText(s string, utf8OK bool) string {
	s = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s)
	s = strings.TrimSpace(s)
	if utf8OK {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 32 && r <= 126 {
			b.WriteRune(r)
		} else {
			b.WriteRune('?')
		}
	}
	return b.String()
}
