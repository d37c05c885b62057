package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

type stubStatsApps struct {
	memApps
	counts map[workflow.Status]int
}

func (s *stubStatsApps) CountByStatus(_ context.Context) (map[workflow.Status]int, error) {
	return s.counts, nil
}

type stubStatsLogs struct {
	memLogs
	stageSeconds map[workflow.Status]float64
	decisionDays float64
}

func (s *stubStatsLogs) AverageStageSeconds(_ context.Context) (map[workflow.Status]float64, error) {
	return s.stageSeconds, nil
}

func (s *stubStatsLogs) AverageDecisionDays(_ context.Context) (float64, error) {
	return s.decisionDays, nil
}

func TestSnapshot(t *testing.T) {
	apps := &stubStatsApps{counts: map[workflow.Status]int{
		workflow.StatusPending:         4,
		workflow.StatusUnderReview:     3,
		workflow.StatusPendingPayment:  2,
		workflow.StatusPaymentReceived: 1,
		workflow.StatusApproved:        5,
		workflow.StatusRejected:        3,
		workflow.StatusWaitlisted:      2,
	}}
	logs := &stubStatsLogs{
		stageSeconds: map[workflow.Status]float64{
			workflow.StatusPending:     7200,
			workflow.StatusUnderReview: 86400,
		},
		decisionDays: 12.5,
	}

	svc := NewStatisticsService(apps, logs, nopLogger{})
	stats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, stats.Total)
	assert.Equal(t, 5, stats.ByStatus["APPROVED"])
	assert.Equal(t, 0, stats.ByStatus["DOCUMENTS_VERIFIED"], "every status appears, even when empty")

	// Awaiting action: every non-terminal status that needs a staff decision.
	assert.Equal(t, 4+3+2+1+2, stats.AwaitingAction)

	assert.InDelta(t, 0.25, stats.ConversionRate, 1e-9)
	assert.InDelta(t, 7200, stats.AverageStageSeconds["PENDING"], 1e-9)
	assert.InDelta(t, 12.5, stats.AverageDecisionDays, 1e-9)
	assert.False(t, stats.GeneratedAt.IsZero())
}

func TestSnapshot_Empty(t *testing.T) {
	apps := &stubStatsApps{counts: map[workflow.Status]int{}}
	logs := &stubStatsLogs{stageSeconds: map[workflow.Status]float64{}}

	svc := NewStatisticsService(apps, logs, nopLogger{})
	stats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.ConversionRate, "no division by zero on an empty table")
	assert.Zero(t, stats.AwaitingAction)
}
