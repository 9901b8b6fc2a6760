package ipa

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/webp"
)

// StandardIconSize is the edge length of generated icon thumbnails
const StandardIconSize = 144

// IconExtractor produces a square PNG thumbnail of an app icon
type IconExtractor struct {
	targetSize uint
}

// NewIconExtractor creates an icon extractor; size 0 means StandardIconSize
func NewIconExtractor(size uint) *IconExtractor {
	if size == 0 {
		size = StandardIconSize
	}
	return &IconExtractor{targetSize: size}
}

// ExtractIcon locates the largest icon image declared in meta inside bundleDir
// and returns it resized as PNG. Xcode-optimized (CgBI) PNGs cannot be decoded
// and yield an error.
func (e *IconExtractor) ExtractIcon(bundleDir string, meta *Metadata) ([]byte, error) {
	entries, err := os.ReadDir(bundleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundle: %w", err)
	}

	prefixes := iconNames(meta)
	prefixes = append(prefixes, "AppIcon", "Icon")

	for _, prefix := range prefixes {
		var best string
		var bestSize int64
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasPrefix(name, prefix) || !isIconImage(name) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.Size() > bestSize {
				best, bestSize = name, info.Size()
			}
		}
		if best == "" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(bundleDir, best))
		if err != nil {
			return nil, fmt.Errorf("failed to read icon %s: %w", best, err)
		}
		return e.processIcon(data, strings.ToLower(filepath.Ext(best)))
	}

	return nil, fmt.Errorf("no app icon found in bundle")
}

// iconNames collects icon base names from CFBundleIcons and the legacy keys
func iconNames(meta *Metadata) []string {
	var names []string
	add := func(values []Value) {
		for _, v := range values {
			if s, ok := v.AsString(); ok && s != "" {
				names = append(names, strings.TrimSuffix(s, filepath.Ext(s)))
			}
		}
	}

	if meta == nil {
		return nil
	}
	if icons, ok := meta.Dict("CFBundleIcons"); ok {
		if primary, ok := icons.Dict("CFBundlePrimaryIcon"); ok {
			if files, ok := primary.Array("CFBundleIconFiles"); ok {
				add(files)
			}
		}
	}
	if files, ok := meta.Array("CFBundleIconFiles"); ok {
		add(files)
	}
	if file, ok := meta.String("CFBundleIconFile"); ok && file != "" {
		names = append(names, strings.TrimSuffix(file, filepath.Ext(file)))
	}
	return names
}

func isIconImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".png" || ext == ".webp"
}

// processIcon decodes and resizes the icon
func (e *IconExtractor) processIcon(iconData []byte, ext string) ([]byte, error) {
	var img image.Image
	var err error

	if ext == ".webp" {
		img, err = webp.Decode(bytes.NewReader(iconData))
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(iconData))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
	}

	resized := resize.Resize(e.targetSize, e.targetSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return buf.Bytes(), nil
}
