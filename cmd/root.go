package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Coder-Joe458/ios-review-checker/internal/config"
	apperrors "github.com/Coder-Joe458/ios-review-checker/internal/errors"
	"github.com/Coder-Joe458/ios-review-checker/internal/i18n"
	"github.com/Coder-Joe458/ios-review-checker/internal/version"
	"github.com/Coder-Joe458/ios-review-checker/pkg/ipa"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/review"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

var (
	cfgFile   string
	langFlag  string
	verbose   bool
	debug     bool
	logFile   string
	logFormat string
	noColor   bool

	// appConfig is loaded before any subcommand runs
	appConfig *models.Config
)

var rootCmd = &cobra.Command{
	Use:           "ipacheck",
	Short:         "Check iOS app packages against App Store review rules",
	Long:          `ipacheck inspects .ipa packages, reads their Info.plist and reports privacy, permission and transport-security problems before App Store review.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	// Help text is rendered before PersistentPreRunE, so localize it from the
	// command line and environment first.
	if err := i18n.Init(langFromArgs(os.Args[1:])); err == nil {
		applyCommandLocalization()
	}

	// Interrupts cancel in-flight checks so extraction directories are removed
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err to w, with context and suggestions when it is a CheckError
func printError(w io.Writer, err error) {
	if checkErr, ok := apperrors.As(err); ok {
		fmt.Fprint(w, checkErr.FormatDetailed())
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	// Assigned here because setup reaches rootCmd through the localization helpers
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ipacheck.yaml or ~/.config/ipacheck/ipacheck.yaml)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "report language (en, zh); defaults to the system locale")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json, compact)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")
}

// setup loads configuration and initializes logging and localization
func setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	lang := langFlag
	if lang == "" {
		lang = cfg.Language
	}
	if err := i18n.Init(lang); err != nil {
		return fmt.Errorf("failed to initialize localization: %w", err)
	}
	applyCommandLocalization()

	lc := utils.DefaultLoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	lc.EnableColor = !noColor
	switch {
	case debug:
		lc.Level = utils.LogLevelDebug
	case verbose:
		lc.Level = utils.LogLevelInfo
	}
	if lc.Format, err = utils.ParseFormat(logFormat); err != nil {
		return err
	}
	if logFile != "" {
		lc.EnableFile = true
		lc.FilePath = logFile
	}
	if err := utils.InitGlobalLogger(lc); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if path := config.ConfigFileUsed(cfgFile); path != "" {
		utils.Debug("Using config file %s", path)
	}

	appConfig = cfg
	return nil
}

// langFromArgs finds --lang before flags are parsed
func langFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--lang="); ok {
			return v
		}
		if arg == "--lang" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// reportLanguage is the language used for review messages
func reportLanguage() string {
	return i18n.CurrentLanguage().String()
}

// loadCatalog returns the configured rule catalog
func loadCatalog(ctx context.Context, cfg *models.Config) (*review.Catalog, error) {
	if cfg.Review.RulesFile == "" {
		return review.DefaultCatalog()
	}
	catalog, err := review.LoadCatalogFile(ctx, cfg.Review.RulesFile)
	if err != nil {
		checkErr := apperrors.WrapError(err, apperrors.ErrorTypeInternal, apperrors.CodeCatalogInvalid,
			"failed to load rule catalog").WithContext("rules_file", cfg.Review.RulesFile)
		checkErr.Suggestions = []string{"Fix or unset review.rules_file"}
		return nil, checkErr
	}
	utils.Info("Loaded rule catalog %s (sha256 %s)", cfg.Review.RulesFile, catalog.SHA256)
	return catalog, nil
}

// newChecker wires the inspection pipeline and the rule engine from cfg
func newChecker(ctx context.Context, cfg *models.Config) (*review.Checker, error) {
	catalog, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger := utils.GetGlobalLogger()
	inspector := ipa.NewInspector(ipa.OptionsFromConfig(cfg), logger)
	return review.NewChecker(inspector, catalog, logger), nil
}

// openOutput returns stdout, or the file at path when set
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// outputFormat is the --format flag or, when unset, the configured default
func outputFormat(flag string) string {
	if flag != "" {
		return flag
	}
	if appConfig != nil {
		return appConfig.Output.Format
	}
	return ""
}
