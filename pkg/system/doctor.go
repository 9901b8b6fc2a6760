package system

import (
	"fmt"
	"os"
)

// Status is the outcome of one diagnostic check
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one diagnostic result
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Detail     string `json:"detail"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Report collects diagnostic results
type Report struct {
	Checks []Check `json:"checks"`
}

// Add appends a check
func (r *Report) Add(c Check) {
	r.Checks = append(r.Checks, c)
}

// Passed reports whether no check failed
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

// CheckTempDir verifies that packages can be extracted under dir: it must be
// writable and should have room for required bytes. An empty dir means the OS
// temp directory.
func CheckTempDir(dir string, required uint64) Check {
	if dir == "" {
		dir = os.TempDir()
	}
	c := Check{Name: "temp directory"}

	f, err := os.CreateTemp(dir, "ipacheck-doctor-*")
	if err != nil {
		c.Status = StatusFail
		c.Detail = fmt.Sprintf("%s is not writable: %v", dir, err)
		c.Suggestion = "Set extraction.temp_dir to a writable directory"
		return c
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	usage, err := GetDiskUsage(dir)
	if err != nil {
		c.Status = StatusWarn
		c.Detail = fmt.Sprintf("%s is writable; free space unknown: %v", dir, err)
		return c
	}

	c.Detail = fmt.Sprintf("%s: %s available", usage.Path, FormatBytes(usage.Available))
	if usage.Available < required {
		c.Status = StatusWarn
		c.Suggestion = fmt.Sprintf("Packages may expand to %s; free space or lower extraction.max_uncompressed_bytes",
			FormatBytes(required))
		return c
	}
	c.Status = StatusOK
	return c
}
