package ipa

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/Coder-Joe458/ios-review-checker/internal/errors"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

// PackageExtension is the file extension of an iOS application package
const PackageExtension = ".ipa"

// DefaultMaxUncompressedBytes bounds the total size written during extraction
const DefaultMaxUncompressedBytes uint64 = 4 << 30

// Local file header, end of central directory, spanning marker
var archiveSignatures = [][]byte{
	{'P', 'K', 0x03, 0x04},
	{'P', 'K', 0x05, 0x06},
	{'P', 'K', 0x07, 0x08},
}

// IsPackageFile checks if the file name carries the package extension
func IsPackageFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), PackageExtension)
}

// HasArchiveSignature reports whether header starts with a zip signature
func HasArchiveSignature(header []byte) bool {
	if len(header) < 4 {
		return false
	}
	for _, sig := range archiveSignatures {
		if bytes.Equal(header[:4], sig) {
			return true
		}
	}
	return false
}

// ValidateUpload checks that path names an existing, non-empty regular file
func ValidateUpload(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewValidationError(apperrors.CodeFileMissing, "uploaded file does not exist").
				WithContext("path", path)
		}
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot stat uploaded file")
	}
	if info.IsDir() {
		return nil, apperrors.NewValidationError(apperrors.CodeFileMissing, "uploaded path is a directory").
			WithContext("path", path)
	}
	if info.Size() == 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeEmptyUpload, "uploaded file is empty").
			WithContext("path", path)
	}
	return info, nil
}

// PackageHandle is an opened, signature-checked package
type PackageHandle struct {
	Path       string
	Size       int64
	EntryCount int

	reader *zip.ReadCloser
}

// Files returns the archive entries in central-directory order
func (h *PackageHandle) Files() []*zip.File {
	return h.reader.File
}

// Close releases the archive
func (h *PackageHandle) Close() error {
	return h.reader.Close()
}

// Extractor opens packages and unpacks them into per-inspection temporary directories
type Extractor struct {
	baseDir         string
	maxUncompressed uint64
	logger          utils.Logger
}

// NewExtractor creates an extractor. An empty baseDir means the OS temp directory;
// a zero limit means DefaultMaxUncompressedBytes.
func NewExtractor(baseDir string, maxUncompressed uint64, logger utils.Logger) *Extractor {
	if maxUncompressed == 0 {
		maxUncompressed = DefaultMaxUncompressedBytes
	}
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &Extractor{
		baseDir:         baseDir,
		maxUncompressed: maxUncompressed,
		logger:          logger,
	}
}

// Open validates the file and its zip signature, then reads the central directory.
// declaredSize is the size reported by the uploader, or 0 when unknown.
func (e *Extractor) Open(path string, declaredSize int64) (*PackageHandle, error) {
	info, err := ValidateUpload(path)
	if err != nil {
		return nil, err
	}
	if declaredSize > 0 && declaredSize != info.Size() {
		e.logger.Warn("Declared size %d differs from actual size %d for %s", declaredSize, info.Size(), filepath.Base(path))
	}

	if err := checkSignature(path); err != nil {
		return nil, err
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		if reader != nil {
			reader.Close()
		}
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeArchive, apperrors.CodeExtractionFailed,
			"cannot read package archive")
	}

	e.logger.Debug("Opened %s: %.2f MB, %d entries", filepath.Base(path), float64(info.Size())/(1024*1024), len(reader.File))

	return &PackageHandle{
		Path:       path,
		Size:       info.Size(),
		EntryCount: len(reader.File),
		reader:     reader,
	}, nil
}

func checkSignature(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot open uploaded file")
	}
	defer f.Close()

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return apperrors.NewArchiveError(apperrors.CodeNotAnArchive, "file is too short to be a package")
		}
		return apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot read uploaded file")
	}
	if !HasArchiveSignature(header) {
		return apperrors.NewArchiveError(apperrors.CodeNotAnArchive, "file does not have a zip signature")
	}
	return nil
}

// ExtractedTree is a package unpacked into a private temporary directory
type ExtractedTree struct {
	Root  string
	Files int
	Bytes uint64

	once     sync.Once
	closeErr error
}

// Close removes the directory tree. It is safe to call more than once.
func (t *ExtractedTree) Close() error {
	t.once.Do(func() {
		t.closeErr = os.RemoveAll(t.Root)
	})
	return t.closeErr
}

// Extract unpacks every entry of h into a fresh directory named after id.
// On error nothing is left behind; on success the caller must Close the tree.
func (e *Extractor) Extract(ctx context.Context, h *PackageHandle, id string) (_ *ExtractedTree, err error) {
	root, err := os.MkdirTemp(e.baseDir, "ipacheck-"+id+"-")
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure,
			"cannot create extraction directory")
	}
	tree := &ExtractedTree{Root: root}

	defer func() {
		if err != nil {
			if rmErr := tree.Close(); rmErr != nil {
				e.logger.Warn("Failed to remove %s: %v", root, rmErr)
			}
		}
	}()

	log := e.logger.WithField("inspection", id)
	remaining := e.maxUncompressed

	for _, file := range h.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		written, err := extractEntry(root, file, remaining)
		if err != nil {
			return nil, err
		}
		if !file.FileInfo().IsDir() {
			tree.Files++
		}
		tree.Bytes += written
		remaining -= written
	}

	log.Debug("Extracted %d files (%d bytes) to %s", tree.Files, tree.Bytes, root)
	return tree, nil
}

// WithExtractedTree extracts h, runs fn on the tree and removes the tree
// whatever fn returns.
func (e *Extractor) WithExtractedTree(ctx context.Context, h *PackageHandle, id string, fn func(*ExtractedTree) error) error {
	tree, err := e.Extract(ctx, h, id)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := tree.Close(); rmErr != nil {
			e.logger.Warn("Failed to remove %s: %v", tree.Root, rmErr)
		}
	}()
	return fn(tree)
}

// safeJoin resolves an archive entry name under root, rejecting names that escape it
func safeJoin(root, name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("illegal entry name %q", name)
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the extraction directory", name)
	}
	return target, nil
}

func extractEntry(root string, file *zip.File, remaining uint64) (uint64, error) {
	target, err := safeJoin(root, file.Name)
	if err != nil {
		return 0, apperrors.WrapError(err, apperrors.ErrorTypeArchive, apperrors.CodeExtractionFailed,
			"archive contains an unsafe path")
	}

	if file.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return 0, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot create directory")
		}
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot create directory")
	}

	rc, err := file.Open()
	if err != nil {
		return 0, apperrors.WrapError(err, apperrors.ErrorTypeArchive, apperrors.CodeExtractionFailed,
			"cannot read archive entry").WithContext("entry", file.Name)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot create file")
	}
	defer out.Close()

	// Read one byte past the budget so an oversized entry is detected rather than truncated
	limit := int64(math.MaxInt64)
	if remaining < math.MaxInt64 {
		limit = int64(remaining) + 1
	}

	w := &trackingWriter{w: out}
	n, err := io.Copy(w, io.LimitReader(rc, limit))
	if err != nil {
		if w.err != nil {
			return 0, apperrors.WrapError(w.err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot write extracted file")
		}
		return 0, apperrors.WrapError(err, apperrors.ErrorTypeArchive, apperrors.CodeExtractionFailed,
			"archive entry is corrupt").WithContext("entry", file.Name)
	}
	if uint64(n) > remaining {
		return 0, apperrors.NewArchiveError(apperrors.CodeExtractionFailed, "package exceeds the uncompressed size limit").
			WithContext("entry", file.Name)
	}
	if err := out.Close(); err != nil {
		return 0, apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeIOFailure, "cannot write extracted file")
	}
	return uint64(n), nil
}

// trackingWriter remembers write errors so they can be told apart from read errors
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
