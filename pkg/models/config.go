package models

// Config represents the application configuration
type Config struct {
	Language   string           `mapstructure:"language" json:"language"`
	Extraction ExtractionConfig `mapstructure:"extraction" json:"extraction"`
	Inspection InspectionConfig `mapstructure:"inspection" json:"inspection"`
	Scanning   ScanningConfig   `mapstructure:"scanning" json:"scanning"`
	Output     OutputConfig     `mapstructure:"output" json:"output"`
	Report     ReportConfig     `mapstructure:"report" json:"report"`
	Review     ReviewConfig     `mapstructure:"review" json:"review"`
}

// ExtractionConfig controls how packages are unpacked
type ExtractionConfig struct {
	TempDir              string `mapstructure:"temp_dir" json:"temp_dir"` // "" = OS temp dir
	MaxUncompressedBytes uint64 `mapstructure:"max_uncompressed_bytes" json:"max_uncompressed_bytes"`
}

// InspectionConfig controls what is read out of a package
type InspectionConfig struct {
	MaxListedEntries int  `mapstructure:"max_listed_entries" json:"max_listed_entries"`
	ExtractIcon      bool `mapstructure:"extract_icon" json:"extract_icon"`
	IconSize         uint `mapstructure:"icon_size" json:"icon_size"`
}

// ScanningConfig contains batch-scanning configuration
type ScanningConfig struct {
	Recursive      bool     `mapstructure:"recursive" json:"recursive"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks" json:"follow_symlinks"`
	IncludePattern []string `mapstructure:"include_pattern" json:"include_pattern"`
	ExcludePattern []string `mapstructure:"exclude_pattern" json:"exclude_pattern"`
	Workers        int      `mapstructure:"workers" json:"workers"`
}

// OutputConfig contains output defaults
type OutputConfig struct {
	Format string `mapstructure:"format" json:"format"` // text, json, yaml, pdf
}

// ReportConfig contains PDF report settings
type ReportConfig struct {
	PDFFont string `mapstructure:"pdf_font" json:"pdf_font"`
}

// ReviewConfig selects the rule catalog
type ReviewConfig struct {
	RulesFile string `mapstructure:"rules_file" json:"rules_file"` // "" = built-in catalog
}
