package ipa

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Coder-Joe458/ios-review-checker/internal/errors"
)

// Package layout
const (
	PayloadDir   = "Payload"
	BundleSuffix = ".app"
	MetadataFile = "Info.plist"
)

// BundleLocation points at the application bundle inside an extracted package
type BundleLocation struct {
	PayloadDir   string
	BundleDir    string
	MetadataPath string
	// Candidates is the number of *.app directories found under Payload
	Candidates int
}

// BundleName returns the bundle directory name, e.g. "Demo.app"
func (l *BundleLocation) BundleName() string {
	return filepath.Base(l.BundleDir)
}

// LocateBundle finds Payload/<first *.app>/Info.plist under root. When several
// bundles exist the lexicographically first one is chosen.
func LocateBundle(root string) (*BundleLocation, error) {
	payload := filepath.Join(root, PayloadDir)

	info, err := os.Stat(payload)
	if err != nil || !info.IsDir() {
		if err != nil && !os.IsNotExist(err) {
			return nil, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot read extracted package")
		}
		return nil, apperrors.NewBundleError(apperrors.CodePayloadNotFound, "package has no Payload directory")
	}

	entries, err := os.ReadDir(payload)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot list Payload directory")
	}

	// os.ReadDir returns entries sorted by name
	var bundles []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasSuffix(strings.ToLower(entry.Name()), BundleSuffix) {
			bundles = append(bundles, entry.Name())
		}
	}
	if len(bundles) == 0 {
		return nil, apperrors.NewBundleError(apperrors.CodeBundleNotFound, "Payload contains no .app bundle")
	}

	bundleDir := filepath.Join(payload, bundles[0])
	metadataPath := filepath.Join(bundleDir, MetadataFile)

	info, err = os.Stat(metadataPath)
	if err != nil || info.IsDir() {
		if err != nil && !os.IsNotExist(err) {
			return nil, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot read application bundle")
		}
		return nil, apperrors.NewBundleError(apperrors.CodeMetadataNotFound, "application bundle has no Info.plist").
			WithContext("bundle", bundles[0])
	}

	return &BundleLocation{
		PayloadDir:   payload,
		BundleDir:    bundleDir,
		MetadataPath: metadataPath,
		Candidates:   len(bundles),
	}, nil
}
