package system

import (
	"fmt"
	"path/filepath"
)

// DiskUsage is the space on the filesystem holding a path
type DiskUsage struct {
	Path      string  `json:"path"`
	Total     uint64  `json:"total"`
	Free      uint64  `json:"free"`
	Available uint64  `json:"available"`
	Used      uint64  `json:"used"`
	UsedPct   float64 `json:"usedPct"`
}

// GetDiskUsage reports disk usage for the filesystem containing path
func GetDiskUsage(path string) (*DiskUsage, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	usage, err := diskUsage(absPath)
	if err != nil {
		return nil, err
	}
	usage.Path = absPath
	if usage.Total > 0 {
		usage.UsedPct = float64(usage.Used) / float64(usage.Total) * 100
	}
	return usage, nil
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
