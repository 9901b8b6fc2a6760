package i18n

import (
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Translator localizes messages for one request. Unlike T it never consults
// process-wide state after construction, so concurrent checks in different
// languages do not interfere.
type Translator struct {
	tag       language.Tag
	localizer *goi18n.Localizer
}

// NewTranslator returns a translator for lang (see Resolve)
func NewTranslator(lang string) *Translator {
	tag := Resolve(lang)
	tr := &Translator{tag: tag}

	if b, err := loadBundle(); err == nil {
		tr.localizer = goi18n.NewLocalizer(b, tag.String(), language.English.String())
	}
	return tr
}

// T translates a message by ID
func (t *Translator) T(id string, data ...map[string]interface{}) string {
	if t == nil || t.localizer == nil {
		return id
	}
	return localize(t.localizer, id, data...)
}

// Language returns the resolved language tag
func (t *Translator) Language() language.Tag {
	return t.tag
}

// Code returns "en" or "zh"
func (t *Translator) Code() string {
	return Code(t.tag)
}
