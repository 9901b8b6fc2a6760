//go:build !windows

package system

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func diskUsage(path string) (*DiskUsage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return nil, fmt.Errorf("failed to get disk statistics: %w", err)
	}

	bsize := uint64(stat.Bsize)
	total := stat.Blocks * bsize
	free := stat.Bfree * bsize

	return &DiskUsage{
		Total:     total,
		Free:      free,
		Available: stat.Bavail * bsize,
		Used:      total - free,
	}, nil
}
