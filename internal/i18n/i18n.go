package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var (
	bundleOnce sync.Once
	bundle     *goi18n.Bundle
	bundleErr  error

	mu              sync.RWMutex
	localizer       *goi18n.Localizer
	currentLanguage = language.English

	supportedMatcher = language.NewMatcher([]language.Tag{
		language.English,
		language.Chinese,
	})
)

//go:embed locales/*.toml
var localeFS embed.FS

// Init chooses the process-wide language using:
//  1. langOverride (from --lang or the config file)
//  2. IPACHECK_LANG environment variable
//  3. LC_ALL / LC_MESSAGES / LANG
//  4. Fallback to English
func Init(langOverride string) error {
	b, err := loadBundle()
	if err != nil {
		return err
	}

	var candidates []string
	if langOverride != "" {
		candidates = append(candidates, langOverride)
	}
	for _, key := range []string{"IPACHECK_LANG", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			candidates = append(candidates, val)
		}
	}
	// On Windows, environment variables for locale are often missing.
	if len(candidates) == 0 {
		candidates = append(candidates, getPlatformLocales()...)
	}

	chosen := matchLanguage(candidates)

	mu.Lock()
	defer mu.Unlock()
	localizer = goi18n.NewLocalizer(b, chosen.String(), language.English.String())
	currentLanguage = chosen

	return nil
}

// loadBundle parses the embedded message files once. The bundle is read-only afterwards.
func loadBundle() (*goi18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

		for _, file := range []string{"locales/active.en.toml", "locales/active.zh.toml"} {
			if _, err := b.LoadMessageFileFS(localeFS, file); err != nil {
				bundleErr = fmt.Errorf("load locales: load %s: %w", file, err)
				return
			}
		}
		bundle = b
	})
	return bundle, bundleErr
}

// T translates a message by ID in the process language.
// If translation fails, it falls back to the message ID to avoid empty output.
func T(id string, data ...map[string]interface{}) string {
	mu.RLock()
	l := localizer
	mu.RUnlock()

	if l == nil {
		if err := Init(""); err != nil {
			fmt.Fprintf(os.Stderr, "i18n init failed: %v\n", err)
			return id
		}
		mu.RLock()
		l = localizer
		mu.RUnlock()
	}

	return localize(l, id, data...)
}

// CurrentLanguage returns the process language tag.
func CurrentLanguage() language.Tag {
	mu.RLock()
	defer mu.RUnlock()
	return currentLanguage
}

// Resolve maps a requested language such as "zh-CN" or "en_US.UTF-8" to a
// supported tag. Empty input means the process language; unknown input means English.
func Resolve(lang string) language.Tag {
	if strings.TrimSpace(lang) == "" {
		return CurrentLanguage()
	}
	return matchLanguage([]string{lang})
}

// Code returns the two-letter code ("en" or "zh") of a supported tag.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

func localize(l *goi18n.Localizer, id string, data ...map[string]interface{}) string {
	templateData := map[string]interface{}{}
	if len(data) > 0 && data[0] != nil {
		templateData = data[0]
	}

	msg, err := l.Localize(&goi18n.LocalizeConfig{
		MessageID:      id,
		TemplateData:   templateData,
		PluralCount:    findPluralCount(templateData),
		DefaultMessage: &goi18n.Message{ID: id, Other: id},
	})
	if err != nil || msg == "" {
		return id
	}
	return msg
}

// matchLanguage returns the first candidate that maps to a supported language.
func matchLanguage(candidates []string) language.Tag {
	for _, cand := range candidates {
		clean := strings.TrimSpace(cand)
		// Normalize common locale strings like zh_CN.UTF-8 -> zh-CN
		if idx := strings.Index(clean, "."); idx >= 0 {
			clean = clean[:idx]
		}
		clean = strings.ReplaceAll(clean, "_", "-")

		lower := strings.ToLower(clean)
		switch {
		case strings.HasPrefix(lower, "zh"):
			return language.Chinese
		case strings.HasPrefix(lower, "en"):
			return language.English
		}

		tag, err := language.Parse(clean)
		if err != nil {
			continue
		}
		if matched, _, confidence := supportedMatcher.Match(tag); confidence >= language.High {
			base, _ := matched.Base()
			return language.Make(base.String())
		}
	}
	return language.English
}

func findPluralCount(data map[string]interface{}) interface{} {
	if data == nil {
		return nil
	}

	for _, key := range []string{"count", "Count", "total", "Total"} {
		if val, ok := data[key]; ok {
			return val
		}
	}

	return nil
}
