//go:build windows

package i18n

import "golang.org/x/sys/windows"

// getPlatformLocales returns the preferred UI languages, then the user locale.
func getPlatformLocales() []string {
	langs, err := windows.GetUserPreferredUILanguages(windows.MUI_LANGUAGE_NAME)
	if err == nil && len(langs) > 0 {
		out := make([]string, 0, len(langs))
		for _, l := range langs {
			if l != "" {
				out = append(out, l)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	if name, err := windows.GetUserDefaultLocaleName(); err == nil && name != "" {
		return []string{name}
	}
	return nil
}
