package server

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/excel-to-tally-xml/pkg/utils"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartCleanup schedules Cleanup on the configured cron schedule and starts
// the scheduler. Callers stop it with Stop().
func (s *Server) StartCleanup() (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(s.cfg.Server.CleanupSchedule, func() {
		s.Cleanup()
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", s.cfg.Server.CleanupSchedule, err)
	}

	c.Start()
	s.logger.Info("cleanup scheduled",
		zap.String("schedule", s.cfg.Server.CleanupSchedule),
		zap.Int("retention_hours", s.cfg.Server.RetentionHours))

	return c, nil
}

// Cleanup removes uploads and outputs older than the retention period and
// returns how many files were removed.
func (s *Server) Cleanup() int {
	maxAge := time.Duration(s.cfg.Server.RetentionHours) * time.Hour
	total := 0

	for _, dir := range []string{s.cfg.UploadDir, s.cfg.OutputDir} {
		removed, err := utils.CleanOldFiles(dir, maxAge)
		total += removed
		if err != nil {
			s.logger.Error("cleanup failed", zap.String("dir", dir), zap.Error(err))
			continue
		}
		if removed > 0 {
			s.logger.Info("removed old files", zap.String("dir", dir), zap.Int("count", removed))
		}
	}

	return total
}
