package ipa

import (
	"archive/zip"
	"context"
	"io"
	"path"
	"strings"

	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

// DefaultMaxListedEntries caps the entry listing of a structure report
const DefaultMaxListedEntries = 100

// maxMetadataBytes bounds how much of an Info.plist is read from the archive
const maxMetadataBytes = 8 << 20

// StructureReporter describes a package without extracting it to disk
type StructureReporter struct {
	extractor  *Extractor
	maxEntries int
	logger     utils.Logger
}

// NewStructureReporter creates a reporter; maxEntries <= 0 means DefaultMaxListedEntries
func NewStructureReporter(extractor *Extractor, maxEntries int, logger utils.Logger) *StructureReporter {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxListedEntries
	}
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &StructureReporter{extractor: extractor, maxEntries: maxEntries, logger: logger}
}

// Analyze lists the archive, summarizes its file types and reads the bundle's
// Info.plist in memory. TotalFiles counts every entry, directories included;
// FileTypes counts files only. Metadata problems are reported in the Note field rather
// than as errors; archive problems are returned.
func (r *StructureReporter) Analyze(ctx context.Context, pkgPath string, declaredSize int64) (*models.ArchiveInventory, error) {
	h, err := r.extractor.Open(pkgPath, declaredSize)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	inv := &models.ArchiveInventory{
		FileSize:   h.Size,
		IsValidIPA: true,
		Entries:    []models.EntryInfo{},
		Summary: models.InventorySummary{
			FileTypes: map[string]int{},
		},
	}

	var metadataEntry *zip.File
	var metadataBundle string

	for _, file := range h.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := file.Name
		isDir := file.FileInfo().IsDir() || strings.HasSuffix(name, "/")

		inv.Summary.TotalFiles++
		if len(inv.Entries) < r.maxEntries {
			inv.Entries = append(inv.Entries, models.EntryInfo{
				Name:           name,
				Size:           file.UncompressedSize64,
				CompressedSize: file.CompressedSize64,
				IsDirectory:    isDir,
			})
		} else {
			inv.Truncated = true
		}
		if isDir {
			continue
		}

		ext := strings.ToLower(path.Ext(name))
		if ext == "" {
			ext = "(none)"
		}
		inv.Summary.FileTypes[ext]++
		if ext == ".plist" {
			inv.Summary.HasPlist = true
		}

		bundle, rel, ok := splitBundlePath(name)
		if !ok {
			continue
		}
		if path.Ext(rel) == "" && !strings.Contains(rel, "/") && rel != "PkgInfo" {
			inv.Summary.HasExecutable = true
		}
		if rel == MetadataFile && (metadataEntry == nil || bundle < metadataBundle) {
			metadataEntry, metadataBundle = file, bundle
		}
	}

	if metadataEntry == nil {
		inv.Note = "Info.plist not found in application bundle"
		return inv, nil
	}

	inv.Summary.HasMetadata = true
	inv.MetadataPath = metadataEntry.Name

	meta, err := readMetadataEntry(metadataEntry)
	if err != nil {
		r.logger.Debug("Structure scan could not decode %s: %v", metadataEntry.Name, err)
		inv.Note = err.Error()
		return inv, nil
	}

	facts := ExtractFacts(meta, r.logger)
	inv.AppInfo = &models.StructureAppInfo{
		BundleID:         facts.BundleID,
		Name:             facts.Name,
		Version:          facts.Version,
		BuildVersion:     facts.BuildVersion,
		MinimumOSVersion: facts.MinimumOSVersion,
	}
	return inv, nil
}

// splitBundlePath splits "Payload/<X>.app/<rest>" into the bundle name and rest
func splitBundlePath(name string) (bundle, rest string, ok bool) {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) != 3 || parts[0] != PayloadDir || !strings.HasSuffix(strings.ToLower(parts[1]), BundleSuffix) || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func readMetadataEntry(file *zip.File) (*Metadata, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxMetadataBytes))
	if err != nil {
		return nil, err
	}
	return DecodeMetadata(data)
}
