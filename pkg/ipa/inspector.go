package ipa

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	apperrors "github.com/Coder-Joe458/ios-review-checker/internal/errors"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

// Options configures an Inspector
type Options struct {
	TempDir              string
	MaxUncompressedBytes uint64
	MaxListedEntries     int
	ExtractIcon          bool
	IconSize             uint
}

// OptionsFromConfig maps the extraction and inspection settings onto Options
func OptionsFromConfig(cfg *models.Config) Options {
	return Options{
		TempDir:              cfg.Extraction.TempDir,
		MaxUncompressedBytes: cfg.Extraction.MaxUncompressedBytes,
		MaxListedEntries:     cfg.Inspection.MaxListedEntries,
		ExtractIcon:          cfg.Inspection.ExtractIcon,
		IconSize:             cfg.Inspection.IconSize,
	}
}

// Inspection is what was learned from one package
type Inspection struct {
	ID             string
	Size           int64
	Entries        int
	BundleName     string
	BundleCount    int
	MetadataFormat string
	Facts          models.AppFacts
	Icon           []byte
}

// Inspector runs the open, extract, locate, decode and extract-facts pipeline.
// It holds no per-request state and may be shared between goroutines.
type Inspector struct {
	extractor *Extractor
	structure *StructureReporter
	icons     *IconExtractor
	opts      Options
	logger    utils.Logger
}

// NewInspector creates an inspector
func NewInspector(opts Options, logger utils.Logger) *Inspector {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	extractor := NewExtractor(opts.TempDir, opts.MaxUncompressedBytes, logger)
	return &Inspector{
		extractor: extractor,
		structure: NewStructureReporter(extractor, opts.MaxListedEntries, logger),
		icons:     NewIconExtractor(opts.IconSize),
		opts:      opts,
		logger:    logger,
	}
}

// Inspect extracts the package at path into a private temporary directory and
// derives its facts. The directory is removed before Inspect returns.
func (i *Inspector) Inspect(ctx context.Context, path string, declaredSize int64) (*Inspection, error) {
	id := uuid.NewString()
	log := i.logger.WithFields(map[string]interface{}{
		"inspection": id,
		"file":       filepath.Base(path),
	})

	h, err := i.extractor.Open(path, declaredSize)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	result := &Inspection{ID: id, Size: h.Size, Entries: h.EntryCount}

	err = i.extractor.WithExtractedTree(ctx, h, id, func(tree *ExtractedTree) error {
		loc, err := LocateBundle(tree.Root)
		if err != nil {
			return err
		}
		if loc.Candidates > 1 {
			log.Warn("Package contains %d app bundles, using %s", loc.Candidates, loc.BundleName())
		}

		raw, err := os.ReadFile(loc.MetadataPath)
		if err != nil {
			return apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot read extracted Info.plist")
		}

		meta, err := DecodeMetadata(raw)
		if err != nil {
			return err
		}

		result.BundleName = loc.BundleName()
		result.BundleCount = loc.Candidates
		result.MetadataFormat = meta.Format
		result.Facts = ExtractFacts(meta, log)

		if i.opts.ExtractIcon {
			icon, err := i.icons.ExtractIcon(loc.BundleDir, meta)
			if err != nil {
				log.Debug("Icon not extracted: %v", err)
			} else {
				result.Icon = icon
			}
		}
		return nil
	})
	if err != nil {
		log.Debug("Inspection failed: %v", err)
		return nil, err
	}

	log.Info("Inspected %s (%s, %d permissions)", result.BundleName, result.Facts.BundleID, len(result.Facts.Permissions))
	return result, nil
}

// Structure reports the package layout without extracting it
func (i *Inspector) Structure(ctx context.Context, path string, declaredSize int64) (*models.ArchiveInventory, error) {
	return i.structure.Analyze(ctx, path, declaredSize)
}
