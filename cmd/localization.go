package cmd

import (
	"github.com/spf13/pflag"

	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
)

// applyCommandLocalization updates command and flag descriptions after i18n is initialized.
func applyCommandLocalization() {
	rootCmd.Short = i18n.T("cmd.root.short")
	rootCmd.Long = i18n.T("cmd.root.long")

	localizeFlags(rootCmd.PersistentFlags(), map[string]string{
		"config":     "flags.config",
		"lang":       "flags.lang",
		"verbose":    "flags.verbose",
		"debug":      "flags.debug",
		"log-file":   "flags.logFile",
		"log-format": "flags.logFormat",
		"no-color":   "flags.noColor",
	})

	checkCmd.Short = i18n.T("cmd.check.short")
	checkCmd.Long = i18n.T("cmd.check.long")
	localizeFlags(checkCmd.Flags(), map[string]string{
		"name":           "flags.name",
		"privacy-policy": "flags.privacyPolicy",
		"uses-https":     "flags.usesHttps",
		"permissions":    "flags.permissions",
		"original-name":  "flags.originalName",
		"format":         "flags.format",
		"output":         "flags.output",
		"icon-out":       "flags.iconOut",
	})

	inspectCmd.Short = i18n.T("cmd.inspect.short")
	inspectCmd.Long = i18n.T("cmd.inspect.long")
	localizeFlags(inspectCmd.Flags(), map[string]string{
		"format": "flags.format",
		"output": "flags.output",
	})

	rulesCmd.Short = i18n.T("cmd.rules.short")
	localizeFlags(rulesCmd.Flags(), map[string]string{"format": "flags.format"})

	scanCmd.Short = i18n.T("cmd.scan.short")
	scanCmd.Long = i18n.T("cmd.scan.long")
	localizeFlags(scanCmd.Flags(), map[string]string{
		"format": "flags.format",
		"output": "flags.output",
	})

	initCmd.Short = i18n.T("cmd.init.short")
	localizeFlags(initCmd.Flags(), map[string]string{"force": "flags.force"})

	doctorCmd.Short = i18n.T("cmd.doctor.short")
	localizeFlags(doctorCmd.Flags(), map[string]string{"format": "flags.format"})

	versionCmd.Short = i18n.T("cmd.version.short")
}

func localizeFlags(flags *pflag.FlagSet, ids map[string]string) {
	for name, id := range ids {
		if flag := flags.Lookup(name); flag != nil {
			flag.Usage = i18n.T(id)
		}
	}
}
