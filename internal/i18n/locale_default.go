//go:build !windows

package i18n

// getPlatformLocales returns OS-specific locale identifiers.
// Unix systems expose the locale through LANG and LC_*, which Init reads already.
func getPlatformLocales() []string {
	return nil
}
