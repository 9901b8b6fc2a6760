package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "1.4.0"

	info := Info("")
	if !strings.HasPrefix(info, "ipacheck 1.4.0\n") || strings.Contains(info, "Rules:") {
		t.Fatalf("Info() = %q", info)
	}
	if !strings.HasSuffix(Info("abc"), "\nRules: sha256:abc") {
		t.Fatalf("catalog hash missing: %q", Info("abc"))
	}
	if Short() != "1.4.0" {
		t.Fatalf("Short() = %q", Short())
	}
}
