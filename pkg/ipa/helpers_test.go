package ipa

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"howett.net/plist"

	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

type zipEntry struct {
	name string
	data []byte
}

func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("zip write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
}

func encodePlist(t *testing.T, values map[string]interface{}, format int) []byte {
	t.Helper()
	data, err := plist.Marshal(values, format)
	if err != nil {
		t.Fatalf("plist marshal: %v", err)
	}
	return data
}

func testPNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// sampleMetadata is a typical release Info.plist: privacy policy present,
// described camera permission, undescribed location permission and secure ATS.
func sampleMetadata() map[string]interface{} {
	return map[string]interface{}{
		"CFBundleIdentifier":                  "com.example.demo",
		"CFBundleDisplayName":                 "Demo",
		"CFBundleName":                        "DemoTarget",
		"CFBundleShortVersionString":          "1.2.0",
		"CFBundleVersion":                     "42",
		"MinimumOSVersion":                    "15.0",
		"UIDeviceFamily":                      []interface{}{1, 2},
		"NSPrivacyPolicyURLString":            "https://example.com/privacy",
		"NSCameraUsageDescription":            "Scan QR codes",
		"NSLocationWhenInUseUsageDescription": "",
		"NSAppTransportSecurity": map[string]interface{}{
			"NSAllowsArbitraryLoads": false,
		},
		"CFBundleIcons": map[string]interface{}{
			"CFBundlePrimaryIcon": map[string]interface{}{
				"CFBundleIconFiles": []interface{}{"AppIcon60x60"},
			},
		},
	}
}

// writeIPA builds Payload/Demo.app with the given Info.plist bytes.
// A nil plist omits Info.plist.
func writeIPA(t *testing.T, dir, name string, info []byte, extra ...zipEntry) string {
	t.Helper()
	entries := []zipEntry{
		{name: "Payload/Demo.app/Demo", data: []byte{0xcf, 0xfa, 0xed, 0xfe}},
		{name: "Payload/Demo.app/PkgInfo", data: []byte("APPL????")},
		{name: "Payload/Demo.app/_CodeSignature/CodeResources", data: []byte("<plist/>")},
	}
	if info != nil {
		entries = append(entries, zipEntry{name: "Payload/Demo.app/Info.plist", data: info})
	}
	entries = append(entries, extra...)

	path := filepath.Join(dir, name)
	writeZip(t, path, entries)
	return path
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected %s to be empty, found %v", dir, names)
	}
}

func quietLogger() utils.Logger {
	return utils.NewNopLogger()
}
