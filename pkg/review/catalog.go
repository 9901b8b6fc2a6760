package review

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
)

//go:embed rules.yaml
var embeddedRules []byte

// Rule ids the engine evaluates
const (
	RulePrivacyPolicy          = 1
	RuleDeviceAdaptation       = 2
	RulePermissionDescriptions = 3
	RuleFileType               = 4
	RuleTransportSecurity      = 5
)

var evaluatedRules = []int{RulePrivacyPolicy, RulePermissionDescriptions, RuleFileType, RuleTransportSecurity}

// DefaultLanguage is used when a requested language has no rule list
const DefaultLanguage = "en"

// catalogFile is the on-disk layout of a rule catalog
type catalogFile struct {
	Languages map[string][]models.Rule `yaml:"languages"`
}

// Catalog is the read-only rule table, one list per language
type Catalog struct {
	rules  map[string][]models.Rule
	order  map[int]int
	SHA256 string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog returns the embedded catalog, parsed once
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = ParseCatalog(embeddedRules)
	})
	return defaultCatalog, defaultErr
}

// LoadCatalogFile reads a catalog from disk, e.g. a translated or extended rule set
func LoadCatalogFile(ctx context.Context, path string) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog parses and validates a YAML catalog
func ParseCatalog(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := validateCatalog(file); err != nil {
		return nil, err
	}

	c := &Catalog{
		rules: make(map[string][]models.Rule, len(file.Languages)),
		order: make(map[int]int),
	}
	for lang, rules := range file.Languages {
		c.rules[strings.ToLower(lang)] = rules
	}
	for i, rule := range c.rules[c.referenceLanguage()] {
		c.order[rule.ID] = i
	}

	sum := sha256.Sum256(raw)
	c.SHA256 = hex.EncodeToString(sum[:])
	return c, nil
}

// validateCatalog checks that every language lists the same unique ids in the
// same order, that all fields are filled and that the evaluated rules exist.
func validateCatalog(file catalogFile) error {
	if len(file.Languages) == 0 {
		return errors.New("rules: languages is empty")
	}

	langs := make([]string, 0, len(file.Languages))
	for lang := range file.Languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var reference []int
	for _, lang := range langs {
		rules := file.Languages[lang]
		if len(rules) == 0 {
			return fmt.Errorf("rules: language %s has no rules", lang)
		}

		ids := make([]int, 0, len(rules))
		seen := make(map[int]struct{}, len(rules))
		for _, r := range rules {
			if r.ID <= 0 {
				return fmt.Errorf("rules: %s: rule id must be positive", lang)
			}
			if _, ok := seen[r.ID]; ok {
				return fmt.Errorf("rules: %s: duplicate rule id: %d", lang, r.ID)
			}
			seen[r.ID] = struct{}{}
			if strings.TrimSpace(r.Category) == "" || strings.TrimSpace(r.Rule) == "" {
				return fmt.Errorf("rules: %s: rule %d needs a category and a statement", lang, r.ID)
			}
			ids = append(ids, r.ID)
		}

		for _, id := range evaluatedRules {
			if _, ok := seen[id]; !ok {
				return fmt.Errorf("rules: %s: missing rule %d", lang, id)
			}
		}

		if reference == nil {
			reference = ids
			continue
		}
		if fmt.Sprint(ids) != fmt.Sprint(reference) {
			return fmt.Errorf("rules: %s lists rules %v, expected %v", lang, ids, reference)
		}
	}
	return nil
}

func (c *Catalog) referenceLanguage() string {
	if _, ok := c.rules[DefaultLanguage]; ok {
		return DefaultLanguage
	}
	langs := c.Languages()
	return langs[0]
}

// Languages returns the catalog languages, sorted
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.rules))
	for lang := range c.rules {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Rules returns a copy of the rule list for lang ("en", "zh"), falling back to English
func (c *Catalog) Rules(lang string) []models.Rule {
	rules, ok := c.rules[strings.ToLower(lang)]
	if !ok {
		rules = c.rules[c.referenceLanguage()]
	}
	out := make([]models.Rule, len(rules))
	copy(out, rules)
	return out
}

// Total is the number of rules, the denominator of the pass rate
func (c *Catalog) Total() int {
	return len(c.rules[c.referenceLanguage()])
}

// Position returns the declaration index of a rule id, or -1
func (c *Catalog) Position(id int) int {
	if pos, ok := c.order[id]; ok {
		return pos
	}
	return -1
}
