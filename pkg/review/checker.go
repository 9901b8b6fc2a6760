package review

import (
	"context"
	"path/filepath"
	"strings"

	apperrors "github.com/Coder-Joe458/ios-review-checker/internal/errors"
	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
	"github.com/Coder-Joe458/ios-review-checker/pkg/ipa"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

// Upload is a file handed over by the upload layer
type Upload struct {
	Path string
	// OriginalName is the client-side name; defaults to the base name of Path
	OriginalName string
	// Size is the declared size, 0 when unknown
	Size int64
}

// Request is one review request
type Request struct {
	Form     models.FormFacts
	Upload   *Upload
	Language string
}

// Inspector is the package pipeline used by the checker
type Inspector interface {
	Inspect(ctx context.Context, path string, declaredSize int64) (*ipa.Inspection, error)
	Structure(ctx context.Context, path string, declaredSize int64) (*models.ArchiveInventory, error)
}

// Checker combines package inspection and rule evaluation. It may be shared
// between goroutines.
type Checker struct {
	inspector Inspector
	engine    *Engine
	catalog   *Catalog
	logger    utils.Logger
}

// NewChecker creates a checker
func NewChecker(inspector Inspector, catalog *Catalog, logger utils.Logger) *Checker {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &Checker{
		inspector: inspector,
		engine:    NewEngine(catalog),
		catalog:   catalog,
		logger:    logger,
	}
}

// Catalog returns the rule catalog in use
func (c *Checker) Catalog() *Catalog {
	return c.catalog
}

// Check reviews a package and/or form facts. Archive, bundle and decode failures
// become a rule-4 issue; validation and internal failures are returned as errors.
func (c *Checker) Check(ctx context.Context, req Request) (*models.CheckResult, error) {
	tr := i18n.NewTranslator(req.Language)
	in := Input{Form: req.Form}

	var inspection *ipa.Inspection
	if req.Upload != nil {
		name := req.Upload.OriginalName
		if name == "" {
			name = filepath.Base(req.Upload.Path)
		}

		if _, err := ipa.ValidateUpload(req.Upload.Path); err != nil {
			return nil, err
		}

		outcome := &UploadOutcome{OriginalName: name}
		in.Upload = outcome

		if ipa.IsPackageFile(name) {
			result, err := c.inspector.Inspect(ctx, req.Upload.Path, req.Upload.Size)
			switch {
			case err == nil:
				inspection = result
				in.Facts = &result.Facts
			case ctx.Err() != nil:
				return nil, ctx.Err()
			case apperrors.IsDegradable(err):
				c.logger.Warn("Inspection of %s failed, continuing with form facts: %v", name, err)
				outcome.Failure = err
			default:
				return nil, err
			}
		} else {
			c.logger.Debug("Skipping inspection of %s: not a %s file", name, ipa.PackageExtension)
		}
	}

	eval := c.engine.Evaluate(in, tr)

	result := &models.CheckResult{
		AppName:         appName(req.Form, in.Facts, tr),
		Issues:          eval.Issues,
		Recommendations: eval.Recommendations,
		PassedRules:     eval.PassedRules,
		TotalRules:      eval.TotalRules,
		Language:        tr.Code(),
	}
	if inspection != nil {
		facts := inspection.Facts
		result.BundleID = facts.BundleID
		result.Version = facts.Version
		result.IPAInfo = &models.IPAInfo{
			BundleID:         facts.BundleID,
			Name:             facts.Name,
			Version:          facts.Version,
			MinimumOSVersion: facts.MinimumOSVersion,
		}
		result.Facts = &facts
		result.InspectionID = inspection.ID
		result.Icon = inspection.Icon
	}

	return result, nil
}

// Structure reports the layout of a package
func (c *Checker) Structure(ctx context.Context, upload Upload) (*models.ArchiveInventory, error) {
	return c.inspector.Structure(ctx, upload.Path, upload.Size)
}

// appName prefers the form name, then the package display name
func appName(form models.FormFacts, facts *models.AppFacts, tr Localizer) string {
	if name := strings.TrimSpace(form.Name); name != "" {
		return name
	}
	if facts != nil && strings.TrimSpace(facts.Name) != "" {
		return facts.Name
	}
	return tr.T("review.unknownApp")
}
