package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	runLogPrefix  = "contentkit-"
	runLogPattern = runLogPrefix + "*.log"
	runLogLayout  = "20060102T150405Z"
)

func runLogName(now time.Time) string {
	return runLogPrefix + now.UTC().Format(runLogLayout) + ".log"
}

// pruneRunLogs removes run logs in dir older than retentionDays, never the
// current one. A retentionDays value of 0 disables pruning.
func pruneRunLogs(logger *slog.Logger, dir string, retentionDays int, current string) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	matches, err := filepath.Glob(filepath.Join(dir, runLogPattern))
	if err != nil {
		return
	}
	for _, path := range matches {
		if path == current {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on logging.dir"),
				String(FieldImpact, "old run log remains on disk"),
			)
			continue
		}
		logger.Debug("run log pruned", String("path", path), String(FieldEventType, "log_pruned"))
	}
}
