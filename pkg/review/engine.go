package review

import (
	"sort"

	"github.com/Coder-Joe458/ios-review-checker/pkg/ipa"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
)

// Localizer renders message ids in one language
type Localizer interface {
	T(id string, data ...map[string]interface{}) string
	Code() string
}

// UploadOutcome describes an uploaded file for the file-type rule
type UploadOutcome struct {
	// OriginalName is the file name given by the uploader; only its extension matters
	OriginalName string
	// Failure is the reason inspection of a correctly named package failed
	Failure error
}

// Input is everything the engine evaluates
type Input struct {
	// Facts are package-derived; nil means the form facts are used instead
	Facts  *models.AppFacts
	Form   models.FormFacts
	Upload *UploadOutcome
}

// Evaluation is the engine output
type Evaluation struct {
	Issues          []models.Issue
	Recommendations []string
	PassedRules     int
	TotalRules      int
}

// Engine evaluates facts against the catalog. It holds no mutable state.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an engine over catalog
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Evaluate runs the privacy, permission, transport and file-type rules in that
// order. Recommendations are grouped by rule and emitted in catalog order.
func (e *Engine) Evaluate(in Input, tr Localizer) Evaluation {
	issues := []models.Issue{}
	recs := map[int][]string{}

	// Rule 1: privacy policy
	hasPrivacyPolicy := false
	if in.Facts != nil {
		hasPrivacyPolicy = in.Facts.HasPrivacyPolicy
	} else if in.Form.PrivacyPolicy != nil {
		hasPrivacyPolicy = *in.Form.PrivacyPolicy
	}
	if !hasPrivacyPolicy {
		issues = append(issues, models.Issue{
			RuleID:   RulePrivacyPolicy,
			Severity: models.SeverityHigh,
			Message:  tr.T("review.privacy.message"),
			Details:  tr.T("review.privacy.details"),
		})
		recs[RulePrivacyPolicy] = append(recs[RulePrivacyPolicy], tr.T("review.privacy.recommendation"))
	}

	// Rule 3: permission descriptions
	permissions := in.Form.Permissions
	if in.Facts != nil {
		permissions = in.Facts.Permissions
	}
	hasLocation := false
	for _, p := range permissions {
		if p.Kind.IsLocation() {
			hasLocation = true
		}
		if p.Described() {
			continue
		}
		data := map[string]interface{}{"Permission": string(p.Kind)}
		issues = append(issues, models.Issue{
			RuleID:   RulePermissionDescriptions,
			Severity: models.SeverityHigh,
			Message:  tr.T("review.permission.message", data),
			Details:  tr.T("review.permission.details", data),
		})
	}
	if hasLocation {
		recs[RulePermissionDescriptions] = append(recs[RulePermissionDescriptions], tr.T("review.location.recommendation"))
	}

	// Rule 5: transport security
	insecure := false
	if in.Facts != nil {
		insecure = in.Facts.AllowsInsecureTransport
	} else {
		insecure = in.Form.UsesHTTPS == nil || !*in.Form.UsesHTTPS
	}
	if insecure {
		issues = append(issues, models.Issue{
			RuleID:   RuleTransportSecurity,
			Severity: models.SeverityMedium,
			Message:  tr.T("review.transport.message"),
			Details:  tr.T("review.transport.details"),
		})
		recs[RuleTransportSecurity] = append(recs[RuleTransportSecurity], tr.T("review.transport.recommendation"))
	}

	// Rule 4: file type
	if in.Upload != nil {
		switch {
		case !ipa.IsPackageFile(in.Upload.OriginalName):
			issues = append(issues, models.Issue{
				RuleID:   RuleFileType,
				Severity: models.SeverityHigh,
				Message:  tr.T("review.fileType.message"),
				Details:  tr.T("review.fileType.details"),
			})
			recs[RuleFileType] = append(recs[RuleFileType], tr.T("review.package.recommendation"))
		case in.Upload.Failure != nil:
			issues = append(issues, models.Issue{
				RuleID:   RuleFileType,
				Severity: models.SeverityHigh,
				Message:  tr.T("review.inspection.message"),
				Details:  tr.T("review.inspection.details", map[string]interface{}{"Reason": in.Upload.Failure.Error()}),
			})
			recs[RuleFileType] = append(recs[RuleFileType], tr.T("review.package.recommendation"))
		}
	}

	total := e.catalog.Total()
	return Evaluation{
		Issues:          issues,
		Recommendations: e.orderRecommendations(recs),
		PassedRules:     total - len(issues),
		TotalRules:      total,
	}
}

// orderRecommendations flattens recs by catalog declaration order
func (e *Engine) orderRecommendations(recs map[int][]string) []string {
	ids := make([]int, 0, len(recs))
	for id := range recs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := e.catalog.Position(ids[i]), e.catalog.Position(ids[j])
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})

	out := []string{}
	for _, id := range ids {
		out = append(out, recs[id]...)
	}
	return out
}
