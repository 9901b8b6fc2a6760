package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Coder-Joe458/ios-review-checker/internal/errors"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/review"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

// DefaultWorkers is used when the configuration does not set a positive worker count
const DefaultWorkers = 4

// Checker is the part of review.Checker the scanner needs
type Checker interface {
	Check(ctx context.Context, req review.Request) (*models.CheckResult, error)
}

// Scanner checks every package under a directory
type Scanner struct {
	config  models.ScanningConfig
	checker Checker
	logger  utils.Logger
}

// NewScanner creates a new scanner instance
func NewScanner(config models.ScanningConfig, checker Checker, logger utils.Logger) *Scanner {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &Scanner{
		config:  config,
		checker: checker,
		logger:  logger,
	}
}

// Options are per-scan settings
type Options struct {
	Language string
	// Progress is optional
	Progress *utils.ScanProgress
}

// FileResult is the outcome for one file, in the envelope a single check returns
type FileResult struct {
	Path     string           `json:"path"`
	Response *review.Response `json:"response"`
}

// Summary counts the outcomes of a scan
type Summary struct {
	TotalFiles   int            `json:"totalFiles"`
	Compliant    int            `json:"compliant"`
	WithIssues   int            `json:"withIssues"`
	Failed       int            `json:"failed"`
	ErrorsByCode map[string]int `json:"errorsByCode,omitempty"`
}

// Result represents the result of scanning
type Result struct {
	Directory string       `json:"directory"`
	Files     []FileResult `json:"files"`
	Summary   Summary      `json:"summary"`
	// WalkErrors are paths that could not be read while collecting files
	WalkErrors []string `json:"walkErrors,omitempty"`
}

// Collect returns the files under directory that match the include and exclude
// patterns, sorted. Unreadable paths are reported but do not stop the walk.
func (s *Scanner) Collect(directory string) ([]string, []error, error) {
	var files []string
	var walkErrors []error

	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			walkErrors = append(walkErrors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}

		if info.IsDir() {
			if !s.config.Recursive && path != directory {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if !s.config.FollowSymlinks {
				return nil
			}
			target, err := os.Stat(path)
			if err != nil {
				walkErrors = append(walkErrors, fmt.Errorf("error following %s: %w", path, err))
				return nil
			}
			// Linked directories are not descended into
			if !target.Mode().IsRegular() {
				return nil
			}
		}

		if !s.matchesPattern(directory, path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, walkErrors, fmt.Errorf("error walking directory: %w", err)
	}

	sort.Strings(files)
	return files, walkErrors, nil
}

// matchesPattern checks if file matches include/exclude patterns
func (s *Scanner) matchesPattern(root, path string) bool {
	filename := filepath.Base(path)
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	for _, pattern := range s.config.ExcludePattern {
		if matched, _ := filepath.Match(pattern, filename); matched {
			return false
		}
		if matched, _ := filepath.Match(pattern, filepath.ToSlash(rel)); matched {
			return false
		}
	}

	for _, pattern := range s.config.IncludePattern {
		if matched, _ := filepath.Match(pattern, filename); matched {
			return true
		}
	}

	return false
}

// Scan checks every matching file under directory with a bounded number of workers.
// Per-file failures are recorded in the result; only cancellation and walk
// failures abort the scan. Files keep their sorted order in the result.
func (s *Scanner) Scan(ctx context.Context, directory string, opts Options) (*Result, error) {
	files, walkErrors, err := s.Collect(directory)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Directory: directory,
		Files:     make([]FileResult, len(files)),
	}
	for _, werr := range walkErrors {
		s.logger.Warn("%v", werr)
		result.WalkErrors = append(result.WalkErrors, werr.Error())
	}

	if opts.Progress != nil {
		opts.Progress.SetTotalFiles(len(files))
	}

	workers := s.config.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	handler := apperrors.NewErrorHandler(s.logger)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if opts.Progress != nil {
				opts.Progress.Start(filepath.Base(path))
			}

			res, err := s.checker.Check(gctx, review.Request{
				Upload:   &review.Upload{Path: path},
				Language: opts.Language,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				result.Files[i] = FileResult{Path: path, Response: review.Failed(handler.Handle(err))}
				if opts.Progress != nil {
					opts.Progress.AddFailed()
				}
				return nil
			}

			result.Files[i] = FileResult{Path: path, Response: review.Succeeded(res)}
			if opts.Progress != nil {
				if res.HasIssues() {
					opts.Progress.AddWithIssues()
				} else {
					opts.Progress.AddCompliant()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Summary = summarize(result.Files, handler.GetStats())
	s.logger.Info("Scanned %d files in %s: %d compliant, %d with issues, %d failed",
		result.Summary.TotalFiles, directory, result.Summary.Compliant, result.Summary.WithIssues, result.Summary.Failed)
	return result, nil
}

func summarize(files []FileResult, stats apperrors.ErrorStats) Summary {
	summary := Summary{TotalFiles: len(files)}
	for _, f := range files {
		switch {
		case f.Response == nil || !f.Response.Success:
			summary.Failed++
		case f.Response.HasIssues():
			summary.WithIssues++
		default:
			summary.Compliant++
		}
	}
	if stats.TotalErrors > 0 {
		summary.ErrorsByCode = stats.ErrorsByCode
	}
	return summary
}
