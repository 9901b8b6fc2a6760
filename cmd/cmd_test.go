package cmd

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"howett.net/plist"
)

// resetFlags restores every flag to its default. Cobra keeps flag values and
// their Changed state in package globals between Execute calls.
func resetFlags() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
	appConfig = nil
}

// runCLI executes the root command in an isolated working directory and
// returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("IPACHECK_EXTRACTION_TEMP_DIR", t.TempDir())

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeTestIPA(t *testing.T, dir string, info map[string]interface{}) string {
	t.Helper()
	raw, err := plist.Marshal(info, plist.BinaryFormat)
	if err != nil {
		t.Fatalf("plist marshal: %v", err)
	}

	path := filepath.Join(dir, "Demo.ipa")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range []struct {
		name string
		data []byte
	}{
		{"Payload/Demo.app/Info.plist", raw},
		{"Payload/Demo.app/Demo", []byte("\xcf\xfa\xed\xfe")},
		{"Payload/Demo.app/PkgInfo", []byte("APPL????")},
	} {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return path
}

func demoInfo() map[string]interface{} {
	return map[string]interface{}{
		"CFBundleIdentifier":                  "com.example.demo",
		"CFBundleDisplayName":                 "Demo",
		"CFBundleShortVersionString":          "3.1",
		"NSPrivacyPolicyURLString":            "https://example.com/privacy",
		"NSLocationWhenInUseUsageDescription": "",
	}
}

type envelope struct {
	Success     bool   `json:"success"`
	AppName     string `json:"appName"`
	BundleID    string `json:"bundleId"`
	PassedRules int    `json:"passedRules"`
	TotalRules  int    `json:"totalRules"`
	Issues      []struct {
		RuleID   int    `json:"ruleId"`
		Severity string `json:"severity"`
		Message  string `json:"message"`
	} `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Code            string   `json:"code"`
	Status          int      `json:"status"`
	Structure       *struct {
		IsValidIPA bool `json:"isValidIPA"`
		Summary    struct {
			TotalFiles    int  `json:"totalFiles"`
			HasExecutable bool `json:"hasExecutable"`
		} `json:"summary"`
	} `json:"structure"`
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("invalid json output: %v\n%s", err, out)
	}
	return env
}

func TestCheckFormOnly(t *testing.T) {
	out, err := runCLI(t, "check", "--lang", "en", "--name", "Ledger", "--privacy-policy", "--uses-https", "-f", "json")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	env := decodeEnvelope(t, out)
	if !env.Success || env.AppName != "Ledger" || len(env.Issues) != 0 || env.PassedRules != env.TotalRules {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestCheckFormOnlyUnanswered(t *testing.T) {
	out, err := runCLI(t, "check", "--lang", "en", "-f", "json",
		"--permissions", `[{"name":"camera"},{"name":"microphone","description":"Voice memos"}]`)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	env := decodeEnvelope(t, out)
	var rules []int
	for _, issue := range env.Issues {
		rules = append(rules, issue.RuleID)
	}
	if len(rules) != 3 || rules[0] != 1 || rules[1] != 3 || rules[2] != 5 {
		t.Fatalf("issue rules = %v", rules)
	}
}

func TestCheckWrongExtension(t *testing.T) {
	notes := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(notes, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "check", notes, "--lang", "en", "--privacy-policy", "--uses-https", "-f", "json")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	env := decodeEnvelope(t, out)
	if len(env.Issues) != 1 || env.Issues[0].RuleID != 4 || env.Issues[0].Message != "Invalid file type uploaded" {
		t.Fatalf("issues = %+v", env.Issues)
	}
}

func TestCheckPackageText(t *testing.T) {
	pkg := writeTestIPA(t, t.TempDir(), demoInfo())

	out, err := runCLI(t, "check", pkg, "--lang", "en")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	for _, want := range []string{
		"App: Demo",
		"Bundle ID: com.example.demo",
		"Passed rules: 4/5",
		"[high] Missing location permission description (Rule 3)",
		"Location permissions should be requested only when needed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCheckPackageChinese(t *testing.T) {
	pkg := writeTestIPA(t, t.TempDir(), demoInfo())

	out, err := runCLI(t, "check", pkg, "--lang", "zh-CN", "-f", "json")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	env := decodeEnvelope(t, out)
	if len(env.Issues) != 1 || env.Issues[0].Message != "缺少location权限的使用说明" {
		t.Fatalf("issues = %+v", env.Issues)
	}
}

func TestCheckPDF(t *testing.T) {
	dir := t.TempDir()
	pkg := writeTestIPA(t, dir, demoInfo())
	pdfPath := filepath.Join(dir, "report.pdf")

	if _, err := runCLI(t, "check", pkg, "--lang", "en", "-f", "pdf", "-o", pdfPath); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestCheckFailures(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.ipa")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "check", empty, "-f", "json")
	if err == nil {
		t.Fatal("empty upload should fail")
	}
	env := decodeEnvelope(t, out)
	if env.Success || env.Status != 400 || env.Code != "EMPTY_UPLOAD" {
		t.Fatalf("envelope = %+v", env)
	}

	out, err = runCLI(t, "check", "--permissions", "not json", "-f", "json")
	if err == nil {
		t.Fatal("invalid permissions should fail")
	}
	if env := decodeEnvelope(t, out); env.Code != "INVALID_FORM" || env.Status != 400 {
		t.Fatalf("envelope = %+v", env)
	}

	if _, err := runCLI(t, "check", "-f", "html"); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestInspect(t *testing.T) {
	pkg := writeTestIPA(t, t.TempDir(), demoInfo())

	out, err := runCLI(t, "inspect", pkg, "-f", "json")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	env := decodeEnvelope(t, out)
	if !env.Success || env.Structure == nil || !env.Structure.IsValidIPA {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Structure.Summary.TotalFiles != 3 || !env.Structure.Summary.HasExecutable {
		t.Fatalf("summary = %+v", env.Structure.Summary)
	}
}

func TestInspectNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.ipa")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "inspect", path, "-f", "json")
	if err == nil {
		t.Fatal("inspect of a non-archive should fail")
	}
	if env := decodeEnvelope(t, out); env.Code != "NOT_AN_ARCHIVE" || env.Status != 400 {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestRules(t *testing.T) {
	out, err := runCLI(t, "rules", "--lang", "zh", "-f", "json")
	if err != nil {
		t.Fatalf("rules failed: %v", err)
	}
	var listing rulesListing
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if listing.Language != "zh" || len(listing.Rules) != 5 || listing.SHA256 == "" {
		t.Fatalf("listing = %+v", listing)
	}

	out, err = runCLI(t, "rules", "--lang", "en")
	if err != nil {
		t.Fatalf("rules failed: %v", err)
	}
	if !strings.Contains(out, "CHECK METHOD") || !strings.Contains(out, "Privacy") {
		t.Fatalf("text output:\n%s", out)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeTestIPA(t, dir, demoInfo())
	if err := os.WriteFile(filepath.Join(dir, "broken.ipa"), []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "scan", dir, "--lang", "en", "--workers", "2")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	for _, want := range []string{"Found 2 packages", "Demo.ipa", "broken.ipa", "2 checked, 0 compliant, 2 with issues, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestScanEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "scan", dir, "--lang", "en")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.Contains(out, "No matching packages found") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipacheck.yaml")

	out, err := runCLI(t, "init", path, "--lang", "en")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "Configuration template written to "+path) {
		t.Fatalf("output:\n%s", out)
	}

	if _, err := runCLI(t, "init", path, "--lang", "en"); err == nil {
		t.Fatal("init over an existing file should fail without --force")
	}
	if _, err := runCLI(t, "init", path, "--force"); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}

	if _, err := runCLI(t, "--config", path, "rules"); err != nil {
		t.Fatalf("generated config is not loadable: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "ipacheck ") || !strings.Contains(out, "Rules: sha256:") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestSetupRunsBeforeSubcommands(t *testing.T) {
	if _, err := runCLI(t, "--lang", "zh", "version"); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if appConfig == nil {
		t.Fatal("config was not loaded before the subcommand ran")
	}
	if checkCmd.Short != "按照审核规则检查 .ipa 应用包或表单信息" {
		t.Fatalf("check help was not localized: %q", checkCmd.Short)
	}
}

func TestDoctor(t *testing.T) {
	out, err := runCLI(t, "doctor", "-f", "json")
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"rule catalog"`) || !strings.Contains(out, `"temp directory"`) {
		t.Fatalf("output:\n%s", out)
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, errors.New("plain failure"))
	if buf.String() != "Error: plain failure\n" {
		t.Fatalf("plain error printed as %q", buf.String())
	}

	rulesFile := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(rulesFile, []byte("languages: {}\n"), 0644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	t.Setenv("IPACHECK_REVIEW_RULES_FILE", rulesFile)
	_, err := runCLI(t, "rules")
	if err == nil {
		t.Fatal("expected invalid catalog to fail")
	}

	buf.Reset()
	printError(&buf, err)
	out := buf.String()
	for _, want := range []string{"INTERNAL Error [CATALOG_INVALID]", "rules_file: " + rulesFile, "Fix or unset review.rules_file"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLangFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"check", "--lang", "zh"}, "zh"},
		{[]string{"--lang=en", "rules"}, "en"},
		{[]string{"check", "--", "--lang", "zh"}, ""},
		{[]string{"check", "--lang"}, ""},
	}
	for _, tt := range tests {
		if got := langFromArgs(tt.args); got != tt.want {
			t.Errorf("langFromArgs(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
