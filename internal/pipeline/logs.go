package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

const logFilePattern = "run-*.log"

// DayLog is the append-only record of one calendar day's runs. Every stage
// writes its progress lines here; the final line records success or the
// failing stage.
type DayLog struct {
	file *os.File
}

// OpenDayLog opens (or creates) the log artifact for the given day.
func OpenDayLog(logDir string, day time.Time) (*DayLog, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	path := filepath.Join(logDir, fmt.Sprintf("run-%s.log", day.Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open day log: %w", err)
	}
	return &DayLog{file: f}, nil
}

// Logf writes one timestamped progress line, mirrored to the process log.
func (d *DayLog) Logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	log.Print(line)
	fmt.Fprintf(d.file, "%s %s\n", time.Now().Format("2006-01-02 15:04:05"), line)
}

// Writer exposes the underlying file so subprocess output can be teed in.
func (d *DayLog) Writer() io.Writer { return d.file }

func (d *DayLog) Close() error { return d.file.Close() }

// CleanupOldLogs deletes run logs older than retentionDays. Best-effort by
// design: a failed sweep must never block the day's run, so errors are
// logged and swallowed. retentionDays 0 disables pruning.
func CleanupOldLogs(logDir string, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, err := filepath.Match(logFilePattern, entry.Name()); err != nil || !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(logDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("[Logs] failed to prune %s: %v", path, err)
		}
	}
}
