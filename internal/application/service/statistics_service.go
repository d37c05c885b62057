package service

import (
	"context"
	"time"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

// Statistics is a point-in-time aggregate over application state. It is built
// from snapshot reads and may lag concurrent writers slightly; it never locks.
type Statistics struct {
	Total               int                `json:"total"`
	ByStatus            map[string]int     `json:"by_status"`
	AwaitingAction      int                `json:"awaiting_action"`
	ConversionRate      float64            `json:"conversion_rate"` // PENDING → APPROVED
	AverageStageSeconds map[string]float64 `json:"average_stage_seconds"`
	AverageDecisionDays float64            `json:"average_decision_days"`
	GeneratedAt         time.Time          `json:"generated_at"`
}

// StatisticsService provides read-only aggregation for dashboards
type StatisticsService struct {
	apps   port.ApplicationRepository
	logs   port.WorkflowLogRepository
	logger Logger
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(apps port.ApplicationRepository, logs port.WorkflowLogRepository, logger Logger) *StatisticsService {
	return &StatisticsService{apps: apps, logs: logs, logger: logger}
}

// Snapshot computes the current workflow statistics
func (s *StatisticsService) Snapshot(ctx context.Context) (*Statistics, error) {
	counts, err := s.apps.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count applications by status", "error", err)
		return nil, err
	}

	stats := &Statistics{
		ByStatus:    make(map[string]int, len(counts)),
		GeneratedAt: time.Now(),
	}
	for _, status := range workflow.Statuses() {
		n := counts[status]
		stats.ByStatus[status.String()] = n
		stats.Total += n
		if status.AwaitingAction() {
			stats.AwaitingAction += n
		}
	}
	if stats.Total > 0 {
		stats.ConversionRate = float64(counts[workflow.StatusApproved]) / float64(stats.Total)
	}

	stageSeconds, err := s.logs.AverageStageSeconds(ctx)
	if err != nil {
		return nil, err
	}
	stats.AverageStageSeconds = make(map[string]float64, len(stageSeconds))
	for status, secs := range stageSeconds {
		stats.AverageStageSeconds[status.String()] = secs
	}

	days, err := s.logs.AverageDecisionDays(ctx)
	if err != nil {
		return nil, err
	}
	stats.AverageDecisionDays = days

	return stats, nil
}
