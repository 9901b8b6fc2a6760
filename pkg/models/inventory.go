package models

// EntryInfo describes one file inside an archive
type EntryInfo struct {
	Name           string `json:"name"`
	Size           uint64 `json:"size"`
	CompressedSize uint64 `json:"compressedSize"`
	IsDirectory    bool   `json:"isDirectory"`
}

// InventorySummary holds the true totals of an archive, independent of listing caps
type InventorySummary struct {
	TotalFiles    int            `json:"totalFiles"`
	FileTypes     map[string]int `json:"fileTypes"`
	HasPlist      bool           `json:"hasPlist"`
	HasMetadata   bool           `json:"hasMetadata"`
	HasExecutable bool           `json:"hasExecutable"`
}

// StructureAppInfo is the subset of app facts reported by a structure scan
type StructureAppInfo struct {
	BundleID         string `json:"bundleId,omitempty"`
	Name             string `json:"name,omitempty"`
	Version          string `json:"version,omitempty"`
	BuildVersion     string `json:"buildVersion,omitempty"`
	MinimumOSVersion string `json:"minimumOSVersion,omitempty"`
}

// ArchiveInventory is a read-only description of a package's contents
type ArchiveInventory struct {
	FileSize     int64             `json:"fileSize"`
	IsValidIPA   bool              `json:"isValidIPA"`
	Entries      []EntryInfo       `json:"entries"`
	Truncated    bool              `json:"truncated"`
	Summary      InventorySummary  `json:"summary"`
	MetadataPath string            `json:"metadataPath,omitempty"`
	AppInfo      *StructureAppInfo `json:"appInfo,omitempty"`
	Note         string            `json:"note,omitempty"`
}
