package review

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	return NewEngine(catalog)
}

func boolPtr(b bool) *bool { return &b }

func ruleIDs(issues []models.Issue) []int {
	ids := []int{}
	for _, issue := range issues {
		ids = append(ids, issue.RuleID)
	}
	return ids
}

func TestScenarioAPrivacyAndUndescribedCamera(t *testing.T) {
	engine := newTestEngine(t)
	facts := &models.AppFacts{
		Permissions: []models.Permission{{Kind: models.PermissionCamera}},
	}

	eval := engine.Evaluate(Input{Facts: facts}, i18n.NewTranslator("en"))

	if got := ruleIDs(eval.Issues); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Fatalf("issue rules = %v, want [1 3]", got)
	}
	for _, issue := range eval.Issues {
		if issue.Severity != models.SeverityHigh {
			t.Fatalf("rule %d severity = %s", issue.RuleID, issue.Severity)
		}
	}
	if eval.Issues[1].Message != "Missing camera permission description" {
		t.Fatalf("permission message = %q", eval.Issues[1].Message)
	}
	if eval.PassedRules != eval.TotalRules-2 || eval.TotalRules != 5 {
		t.Fatalf("passed %d of %d", eval.PassedRules, eval.TotalRules)
	}
	want := []string{"Add NSPrivacyPolicyURLString key in Info.plist pointing to your privacy policy page."}
	if !reflect.DeepEqual(eval.Recommendations, want) {
		t.Fatalf("Recommendations = %v", eval.Recommendations)
	}
}

func TestScenarioBCompliant(t *testing.T) {
	engine := newTestEngine(t)
	facts := &models.AppFacts{HasPrivacyPolicy: true, PrivacyPolicyURL: "https://example.com/p"}

	eval := engine.Evaluate(Input{Facts: facts}, i18n.NewTranslator("en"))

	if eval.Issues == nil || len(eval.Issues) != 0 {
		t.Fatalf("Issues = %#v, want empty non-nil", eval.Issues)
	}
	if eval.Recommendations == nil || len(eval.Recommendations) != 0 {
		t.Fatalf("Recommendations = %#v, want empty non-nil", eval.Recommendations)
	}
	if eval.PassedRules != eval.TotalRules {
		t.Fatalf("passed %d of %d", eval.PassedRules, eval.TotalRules)
	}
}

func TestPrivacyRuleExactlyOnce(t *testing.T) {
	engine := newTestEngine(t)
	for _, has := range []bool{true, false} {
		for _, insecure := range []bool{true, false} {
			facts := &models.AppFacts{HasPrivacyPolicy: has, AllowsInsecureTransport: insecure}
			eval := engine.Evaluate(Input{Facts: facts}, i18n.NewTranslator("en"))

			count := 0
			for _, issue := range eval.Issues {
				if issue.RuleID == RulePrivacyPolicy {
					count++
				}
			}
			if (has && count != 0) || (!has && count != 1) {
				t.Fatalf("has=%v insecure=%v: %d privacy issues", has, insecure, count)
			}
		}
	}
}

func TestOnePermissionIssuePerUndescribedPermission(t *testing.T) {
	engine := newTestEngine(t)
	facts := &models.AppFacts{
		HasPrivacyPolicy: true,
		Permissions: []models.Permission{
			{Kind: models.PermissionCamera},
			{Kind: models.PermissionMicrophone, Description: "   "},
			{Kind: models.PermissionContacts, Description: "Invite friends"},
			{Kind: models.PermissionHealthKit},
		},
	}

	eval := engine.Evaluate(Input{Facts: facts}, i18n.NewTranslator("en"))

	if got := ruleIDs(eval.Issues); !reflect.DeepEqual(got, []int{3, 3, 3}) {
		t.Fatalf("issue rules = %v", got)
	}
	if eval.PassedRules != eval.TotalRules-3 {
		t.Fatalf("passed %d of %d", eval.PassedRules, eval.TotalRules)
	}
}

func TestPassedRulesCanGoNegative(t *testing.T) {
	engine := newTestEngine(t)
	var perms []models.Permission
	for _, kind := range []models.PermissionKind{"camera", "microphone", "contacts", "bluetooth", "healthKit", "photoLibrary"} {
		perms = append(perms, models.Permission{Kind: kind})
	}

	eval := engine.Evaluate(Input{Facts: &models.AppFacts{Permissions: perms, AllowsInsecureTransport: true}}, i18n.NewTranslator("en"))

	if len(eval.Issues) != 8 || eval.PassedRules != -3 {
		t.Fatalf("issues=%d passed=%d", len(eval.Issues), eval.PassedRules)
	}
	result := models.CheckResult{PassedRules: eval.PassedRules, TotalRules: eval.TotalRules}
	if result.PassRate() != 0 {
		t.Fatalf("PassRate = %v, want 0", result.PassRate())
	}
}

func TestLocationRecommendationOnceInCatalogOrder(t *testing.T) {
	engine := newTestEngine(t)
	facts := &models.AppFacts{
		AllowsInsecureTransport: true,
		Permissions: []models.Permission{
			{Kind: models.PermissionLocation, Description: "Find stores"},
			{Kind: models.PermissionLocationAlways, Description: "Geofencing"},
		},
	}

	eval := engine.Evaluate(Input{Facts: facts}, i18n.NewTranslator("en"))

	want := []string{
		"Add NSPrivacyPolicyURLString key in Info.plist pointing to your privacy policy page.",
		"Location permissions should be requested only when needed, not at app launch.",
		"Enable App Transport Security (ATS) in Info.plist to ensure the app only uses secure HTTPS connections.",
	}
	if !reflect.DeepEqual(eval.Recommendations, want) {
		t.Fatalf("Recommendations = %q", eval.Recommendations)
	}
	if got := ruleIDs(eval.Issues); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Fatalf("issue rules = %v", got)
	}
	if eval.Issues[1].Severity != models.SeverityMedium {
		t.Fatalf("transport severity = %s", eval.Issues[1].Severity)
	}
}

func TestFormOnlyFacts(t *testing.T) {
	engine := newTestEngine(t)
	tr := i18n.NewTranslator("en")

	unanswered := engine.Evaluate(Input{}, tr)
	if got := ruleIDs(unanswered.Issues); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Fatalf("unanswered form: issue rules = %v", got)
	}

	answered := engine.Evaluate(Input{Form: models.FormFacts{
		PrivacyPolicy: boolPtr(true),
		UsesHTTPS:     boolPtr(true),
		Permissions:   []models.Permission{{Kind: "camera", Description: "Scan"}, {Kind: "location"}},
	}}, tr)
	if got := ruleIDs(answered.Issues); !reflect.DeepEqual(got, []int{3}) {
		t.Fatalf("answered form: issue rules = %v", got)
	}
	if len(answered.Recommendations) != 1 {
		t.Fatalf("expected only the location recommendation, got %v", answered.Recommendations)
	}

	explicitNo := engine.Evaluate(Input{Form: models.FormFacts{PrivacyPolicy: boolPtr(false), UsesHTTPS: boolPtr(false)}}, tr)
	if got := ruleIDs(explicitNo.Issues); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Fatalf("explicit no: issue rules = %v", got)
	}
}

func TestPackageFactsOverrideForm(t *testing.T) {
	engine := newTestEngine(t)
	in := Input{
		Facts: &models.AppFacts{HasPrivacyPolicy: true},
		Form:  models.FormFacts{PrivacyPolicy: boolPtr(false), UsesHTTPS: boolPtr(false)},
	}
	if eval := engine.Evaluate(in, i18n.NewTranslator("en")); len(eval.Issues) != 0 {
		t.Fatalf("package facts should win over the form: %v", eval.Issues)
	}
}

func TestFileTypeRule(t *testing.T) {
	engine := newTestEngine(t)
	tr := i18n.NewTranslator("en")
	compliant := &models.AppFacts{HasPrivacyPolicy: true}

	wrongExt := engine.Evaluate(Input{Facts: compliant, Upload: &UploadOutcome{OriginalName: "notes.txt"}}, tr)
	if got := ruleIDs(wrongExt.Issues); !reflect.DeepEqual(got, []int{4}) {
		t.Fatalf("wrong extension: issue rules = %v", got)
	}
	if wrongExt.Issues[0].Message != "Invalid file type uploaded" {
		t.Fatalf("message = %q", wrongExt.Issues[0].Message)
	}

	failed := engine.Evaluate(Input{Facts: compliant, Upload: &UploadOutcome{
		OriginalName: "App.IPA",
		Failure:      errors.New("zip: not a valid zip file"),
	}}, tr)
	if got := ruleIDs(failed.Issues); !reflect.DeepEqual(got, []int{4}) {
		t.Fatalf("failed inspection: issue rules = %v", got)
	}
	if failed.Issues[0].Details != "The package could not be inspected: zip: not a valid zip file" {
		t.Fatalf("details = %q", failed.Issues[0].Details)
	}

	fine := engine.Evaluate(Input{Facts: compliant, Upload: &UploadOutcome{OriginalName: "App.ipa"}}, tr)
	if len(fine.Issues) != 0 {
		t.Fatalf("valid upload produced issues: %v", fine.Issues)
	}
}

func TestEvaluateIsDeterministicAndLocalized(t *testing.T) {
	engine := newTestEngine(t)
	facts := &models.AppFacts{
		AllowsInsecureTransport: true,
		Permissions:             []models.Permission{{Kind: models.PermissionCamera}, {Kind: models.PermissionLocation}},
	}

	first := engine.Evaluate(Input{Facts: facts}, i18n.NewTranslator("zh"))
	second := engine.Evaluate(Input{Facts: facts}, i18n.NewTranslator("zh"))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("evaluation is not deterministic")
	}
	if first.Issues[0].Message != "缺少隐私政策" {
		t.Fatalf("zh message = %q", first.Issues[0].Message)
	}

	en := engine.Evaluate(Input{Facts: facts}, i18n.NewTranslator("en"))
	if !reflect.DeepEqual(ruleIDs(en.Issues), ruleIDs(first.Issues)) || en.PassedRules != first.PassedRules {
		t.Fatalf("language changed the logic")
	}
}
