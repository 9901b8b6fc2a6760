package i18n

import (
	"sync"
	"testing"

	"golang.org/x/text/language"
)

func TestResolve(t *testing.T) {
	cases := map[string]language.Tag{
		"en":          language.English,
		"en-US":       language.English,
		"zh":          language.Chinese,
		"zh_CN.UTF-8": language.Chinese,
		"zh-Hant-TW":  language.Chinese,
		"fr":          language.English,
		"garbage!!":   language.English,
	}
	for input, want := range cases {
		if got := Resolve(input); got != want {
			t.Errorf("Resolve(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestTranslatorMessages(t *testing.T) {
	en := NewTranslator("en")
	zh := NewTranslator("zh")

	if got := en.T("review.privacy.message"); got != "Missing privacy policy" {
		t.Fatalf("en privacy message = %q", got)
	}
	if got := zh.T("review.privacy.message"); got != "缺少隐私政策" {
		t.Fatalf("zh privacy message = %q", got)
	}
	if got := en.T("review.permission.message", map[string]interface{}{"Permission": "camera"}); got != "Missing camera permission description" {
		t.Fatalf("templated message = %q", got)
	}
	if en.Code() != "en" || zh.Code() != "zh" {
		t.Fatalf("codes = %s/%s", en.Code(), zh.Code())
	}
}

func TestUnknownMessageFallsBackToID(t *testing.T) {
	if got := NewTranslator("en").T("no.such.message"); got != "no.such.message" {
		t.Fatalf("got %q", got)
	}
	var nilTr *Translator
	if got := nilTr.T("review.unknownApp"); got != "review.unknownApp" {
		t.Fatalf("nil translator returned %q", got)
	}
}

func TestLocaleFilesHaveSameMessages(t *testing.T) {
	b, err := loadBundle()
	if err != nil {
		t.Fatalf("loadBundle: %v", err)
	}
	_ = b

	for _, id := range []string{
		"review.privacy.recommendation", "review.transport.message", "review.fileType.details",
		"review.inspection.details", "review.unknownApp", "cmd.root.short", "report.title", "scan.summary",
	} {
		en := NewTranslator("en").T(id)
		zh := NewTranslator("zh").T(id)
		if en == id || zh == id {
			t.Errorf("message %s missing in a locale (en=%q zh=%q)", id, en, zh)
		}
	}
}

func TestConcurrentTranslators(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lang, want := "en", "Unknown App"
			if i%2 == 1 {
				lang, want = "zh", "未知应用"
			}
			if got := NewTranslator(lang).T("review.unknownApp"); got != want {
				t.Errorf("%s: got %q, want %q", lang, got, want)
			}
		}(i)
	}
	wg.Wait()
}

func TestInitWithOverride(t *testing.T) {
	if err := Init("zh-CN"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if CurrentLanguage() != language.Chinese {
		t.Fatalf("CurrentLanguage = %v", CurrentLanguage())
	}
	if got := T("review.unknownApp"); got != "未知应用" {
		t.Fatalf("T = %q", got)
	}
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := T("review.unknownApp"); got != "Unknown App" {
		t.Fatalf("T = %q", got)
	}
}
