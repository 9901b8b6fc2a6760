package review

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}

	if catalog.Total() != 5 {
		t.Fatalf("Total = %d, want 5", catalog.Total())
	}
	if got := strings.Join(catalog.Languages(), ","); got != "en,zh" {
		t.Fatalf("Languages = %s", got)
	}
	if catalog.SHA256 == "" {
		t.Fatalf("SHA256 not set")
	}

	en := catalog.Rules("en")
	zh := catalog.Rules("zh")
	for i := range en {
		if en[i].ID != i+1 || zh[i].ID != i+1 {
			t.Fatalf("rule %d ids: en=%d zh=%d", i, en[i].ID, zh[i].ID)
		}
	}
	if en[0].Category != "Privacy" || zh[0].Category != "隐私" {
		t.Fatalf("unexpected first rule: %+v / %+v", en[0], zh[0])
	}
	if catalog.Rules("fr")[0].Category != "Privacy" {
		t.Fatalf("unknown language should fall back to English")
	}
	if catalog.Position(RuleTransportSecurity) != 4 || catalog.Position(99) != -1 {
		t.Fatalf("Position reports wrong indexes")
	}
}

func TestRulesReturnsCopy(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	rules := catalog.Rules("en")
	rules[0].Category = "mutated"
	if catalog.Rules("en")[0].Category != "Privacy" {
		t.Fatalf("catalog was mutated through Rules()")
	}
}

func TestParseCatalogValidation(t *testing.T) {
	rule := func(id int) string {
		return "      - {id: " + strconv.Itoa(id) + ", category: C, rule: R, description: D, check_method: M}\n"
	}
	full := rule(1) + rule(2) + rule(3) + rule(4) + rule(5)

	cases := map[string]string{
		"empty":          "languages: {}\n",
		"missing rule":   "languages:\n  en:\n" + rule(1) + rule(3) + rule(4),
		"duplicate id":   "languages:\n  en:\n" + full + rule(3),
		"order mismatch": "languages:\n  en:\n" + full + "  zh:\n" + rule(2) + rule(1) + rule(3) + rule(4) + rule(5),
		"blank category": "languages:\n  en:\n" + full + "      - {id: 6, category: '', rule: R}\n",
		"not yaml":       "languages: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(raw)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if _, err := ParseCatalog([]byte("languages:\n  en:\n" + full)); err != nil {
		t.Fatalf("valid catalog rejected: %v", err)
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, embeddedRules, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	catalog, err := LoadCatalogFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadCatalogFile: %v", err)
	}
	def, _ := DefaultCatalog()
	if catalog.SHA256 != def.SHA256 {
		t.Fatalf("same bytes should hash the same")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadCatalogFile(ctx, path); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
