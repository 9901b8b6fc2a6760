package utils

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ScanProgress tracks batch-check progress. It is safe for concurrent use
// by the workers of a scan.
type ScanProgress struct {
	mu sync.Mutex
	w  io.Writer

	TotalFiles     int
	ProcessedFiles int
	Compliant      int
	WithIssues     int
	Failed         int
	StartTime      time.Time
	CurrentFile    string
}

// NewScanProgress creates a new scan progress tracker writing to w.
// A nil writer disables rendering.
func NewScanProgress(w io.Writer) *ScanProgress {
	return &ScanProgress{
		w:         w,
		StartTime: time.Now(),
	}
}

// SetTotalFiles sets the total number of files to process
func (sp *ScanProgress) SetTotalFiles(total int) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.TotalFiles = total
}

// Start records the file a worker has picked up
func (sp *ScanProgress) Start(filename string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.CurrentFile = filename
	sp.render()
}

// AddCompliant records a file that passed every rule
func (sp *ScanProgress) AddCompliant() {
	sp.finish(func() { sp.Compliant++ })
}

// AddWithIssues records a file with at least one issue
func (sp *ScanProgress) AddWithIssues() {
	sp.finish(func() { sp.WithIssues++ })
}

// AddFailed records a file whose check could not be completed
func (sp *ScanProgress) AddFailed() {
	sp.finish(func() { sp.Failed++ })
}

func (sp *ScanProgress) finish(count func()) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	count()
	sp.ProcessedFiles++
	sp.render()
}

// render draws the progress line; callers hold mu
func (sp *ScanProgress) render() {
	if sp.w == nil || sp.TotalFiles <= 0 {
		return
	}

	percentage := float64(sp.ProcessedFiles) / float64(sp.TotalFiles) * 100
	elapsed := time.Since(sp.StartTime)

	var eta string
	if sp.ProcessedFiles > 0 {
		avgTimePerFile := elapsed / time.Duration(sp.ProcessedFiles)
		remaining := time.Duration(sp.TotalFiles-sp.ProcessedFiles) * avgTimePerFile
		eta = fmt.Sprintf(" ETA: %v", remaining.Round(time.Second))
	}

	currentFile := sp.CurrentFile
	if len(currentFile) > 40 {
		currentFile = "..." + currentFile[len(currentFile)-37:]
	}

	fmt.Fprintf(sp.w, "\r📊 Progress: %.1f%% (%d/%d) | Checking: %s%s",
		percentage, sp.ProcessedFiles, sp.TotalFiles, currentFile, eta)
}

// ShowFinalStats displays final scanning statistics
func (sp *ScanProgress) ShowFinalStats() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.w == nil {
		return
	}

	elapsed := time.Since(sp.StartTime)

	fmt.Fprint(sp.w, "\n\n")
	fmt.Fprintln(sp.w, "=== Scan Results ===")
	fmt.Fprintf(sp.w, "Files checked: %d\n", sp.ProcessedFiles)
	fmt.Fprintf(sp.w, "Compliant: %d\n", sp.Compliant)
	fmt.Fprintf(sp.w, "With issues: %d\n", sp.WithIssues)

	if sp.Failed > 0 {
		fmt.Fprintf(sp.w, "Failed: %d\n", sp.Failed)
	}

	fmt.Fprintf(sp.w, "Total time: %v\n", elapsed.Round(time.Millisecond))

	if sp.ProcessedFiles > 0 {
		avgTime := elapsed / time.Duration(sp.ProcessedFiles)
		fmt.Fprintf(sp.w, "Average time per file: %v\n", avgTime.Round(time.Millisecond))
	}
}
