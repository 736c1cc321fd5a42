package scheduler

import (
	"errors"

	"gasstation_backend/internal/services"
	"gasstation_backend/pkg/utils"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic anomaly scan in the background.
type Scheduler struct {
	cron       *cron.Cron
	anomalySvc services.AnomalyService
	spec       string
}

// NewScheduler creates a scheduler that scans all stations on the given cron
// spec (standard 5-field expressions).
func NewScheduler(anomalySvc services.AnomalyService, spec string) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		anomalySvc: anomalySvc,
		spec:       spec,
	}
}

// Start registers the scan job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runScan); err != nil {
		return err
	}
	s.cron.Start()
	utils.LogInfo("anomaly scan scheduled: " + s.spec)
	return nil
}

// Stop stops the cron loop. Running jobs finish on their own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	utils.LogInfo("scheduler stopped")
}

func (s *Scheduler) runScan() {
	// The scan state table enforces the cooldown, so overlapping triggers
	// turn into no-ops rather than duplicate work.
	anomalies, err := s.anomalySvc.ScanDailyAnomalies(nil, 1, false)
	if err != nil {
		if errors.Is(err, services.ErrScanOnCooldown) {
			utils.LogDebug("anomaly scan tick skipped, cooldown active")
			return
		}
		utils.LogError(err, "scheduled anomaly scan failed")
		return
	}
	if len(anomalies) > 0 {
		utils.LogInfo("scheduled anomaly scan recorded new anomalies")
	}
}
