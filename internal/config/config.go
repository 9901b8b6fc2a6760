package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Coder-Joe458/ios-review-checker/pkg/ipa"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
)

// EnvPrefix is the prefix of environment overrides, e.g. IPACHECK_OUTPUT_FORMAT
const EnvPrefix = "IPACHECK"

// FileName is the config file base name searched for in the working directory
// and in ~/.config/ipacheck
const FileName = "ipacheck"

var defaultConfig = models.Config{
	Language: "",
	Extraction: models.ExtractionConfig{
		TempDir:              "",
		MaxUncompressedBytes: ipa.DefaultMaxUncompressedBytes,
	},
	Inspection: models.InspectionConfig{
		MaxListedEntries: ipa.DefaultMaxListedEntries,
		ExtractIcon:      true,
		IconSize:         ipa.StandardIconSize,
	},
	Scanning: models.ScanningConfig{
		Recursive:      true,
		FollowSymlinks: false,
		IncludePattern: []string{"*.ipa"},
		ExcludePattern: []string{},
		Workers:        4,
	},
	Output: models.OutputConfig{
		Format: "text",
	},
}

// Default returns a copy of the built-in configuration
func Default() *models.Config {
	cfg := defaultConfig
	cfg.Scanning.IncludePattern = append([]string(nil), defaultConfig.Scanning.IncludePattern...)
	cfg.Scanning.ExcludePattern = append([]string(nil), defaultConfig.Scanning.ExcludePattern...)
	return &cfg
}

// Load loads configuration from file and environment. An explicit configPath
// must exist; otherwise a missing config file means defaults.
func Load(configPath string) (*models.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("language", defaultConfig.Language)
	v.SetDefault("extraction.temp_dir", defaultConfig.Extraction.TempDir)
	v.SetDefault("extraction.max_uncompressed_bytes", defaultConfig.Extraction.MaxUncompressedBytes)
	v.SetDefault("inspection.max_listed_entries", defaultConfig.Inspection.MaxListedEntries)
	v.SetDefault("inspection.extract_icon", defaultConfig.Inspection.ExtractIcon)
	v.SetDefault("inspection.icon_size", defaultConfig.Inspection.IconSize)
	v.SetDefault("scanning.recursive", defaultConfig.Scanning.Recursive)
	v.SetDefault("scanning.follow_symlinks", defaultConfig.Scanning.FollowSymlinks)
	v.SetDefault("scanning.include_pattern", defaultConfig.Scanning.IncludePattern)
	v.SetDefault("scanning.exclude_pattern", defaultConfig.Scanning.ExcludePattern)
	v.SetDefault("scanning.workers", defaultConfig.Scanning.Workers)
	v.SetDefault("output.format", defaultConfig.Output.Format)
	v.SetDefault("report.pdf_font", defaultConfig.Report.PDFFont)
	v.SetDefault("review.rules_file", defaultConfig.Review.RulesFile)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Scanning.Workers <= 0 {
		return nil, fmt.Errorf("scanning.workers must be positive, got %d", config.Scanning.Workers)
	}
	if config.Inspection.MaxListedEntries <= 0 {
		return nil, fmt.Errorf("inspection.max_listed_entries must be positive, got %d", config.Inspection.MaxListedEntries)
	}

	return &config, nil
}

// ConfigFileUsed reports which file Load would read for configPath, or "" when none exists
func ConfigFileUsed(configPath string) string {
	if configPath != "" {
		return configPath
	}
	candidates := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", FileName))
	}
	for _, dir := range candidates {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, FileName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// SaveTemplate saves a configuration template
func SaveTemplate(path string) error {
	templateContent := `# ipacheck configuration file

# Report language: "en", "zh", or empty to follow the system locale
language: ""

extraction:
  # Directory for temporary extraction trees (empty = OS temp directory)
  temp_dir: ""

  # Refuse packages that expand to more than this many bytes
  max_uncompressed_bytes: 4294967296

inspection:
  # Maximum entries listed by 'ipacheck inspect'
  max_listed_entries: 100

  # Decode the app icon for PDF reports and --icon-out
  extract_icon: true

  # Icon thumbnail edge length in pixels
  icon_size: 144

scanning:
  # Scan directories recursively
  recursive: true

  # Follow symbolic links to files
  follow_symlinks: false

  # Include patterns (glob)
  include_pattern:
    - "*.ipa"

  # Exclude patterns (glob, matched against the file name and the relative path)
  exclude_pattern: []

  # Packages checked in parallel
  workers: 4

output:
  # Default output format: text, json, yaml or pdf
  format: "text"

report:
  # TrueType font for PDF reports; needed for non-Latin text
  pdf_font: ""

review:
  # Custom rule catalog (YAML); empty = built-in catalog
  rules_file: ""
`

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(templateContent), 0644)
}
