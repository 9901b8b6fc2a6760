package models

// Severity ranks how serious an issue is
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rule is one entry of the review rule catalog
type Rule struct {
	ID          int    `yaml:"id" json:"id"`
	Category    string `yaml:"category" json:"category"`
	Rule        string `yaml:"rule" json:"rule"`
	Description string `yaml:"description" json:"description"`
	CheckMethod string `yaml:"check_method" json:"checkMethod"`
}

// Issue is a single rule violation found during a review
type Issue struct {
	RuleID   int      `json:"ruleId"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Details  string   `json:"details"`
}

// IPAInfo summarizes the identifiers read from an uploaded package
type IPAInfo struct {
	BundleID         string `json:"bundleId"`
	Name             string `json:"name"`
	Version          string `json:"version"`
	MinimumOSVersion string `json:"minimumOSVersion"`
}

// CheckResult is the outcome of reviewing one application
type CheckResult struct {
	AppName         string    `json:"appName"`
	BundleID        string    `json:"bundleId,omitempty"`
	Version         string    `json:"version,omitempty"`
	Issues          []Issue   `json:"issues"`
	Recommendations []string  `json:"recommendations"`
	PassedRules     int       `json:"passedRules"`
	TotalRules      int       `json:"totalRules"`
	IPAInfo         *IPAInfo  `json:"ipaInfo,omitempty"`
	Facts           *AppFacts `json:"facts,omitempty"`
	InspectionID    string    `json:"inspectionId,omitempty"`
	Language        string    `json:"language"`

	// Icon is a PNG thumbnail of the app icon, when one could be decoded
	Icon []byte `json:"-"`
}

// PassRate returns passedRules/totalRules clamped to [0, 1]
func (r *CheckResult) PassRate() float64 {
	if r.TotalRules <= 0 {
		return 0
	}
	rate := float64(r.PassedRules) / float64(r.TotalRules)
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}

// HasIssues reports whether any rule was violated
func (r *CheckResult) HasIssues() bool {
	return len(r.Issues) > 0
}
