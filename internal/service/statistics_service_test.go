package service

import (
	"testing"
	"time"

	"panjar/internal/repository"
	"panjar/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatisticsService(f *fixture) *statisticsService {
	svc := NewStatisticsService(repository.NewStatisticsRepository(f.db)).(*statisticsService)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestGetStatistics(t *testing.T) {
	f := newFixture(t)
	approved := f.createRequest(t)
	f.createRequest(t)
	rejected := f.createRequest(t)

	_, err := f.panjar.VerifyRequest(f.ctx, uuid.MustParse(approved.ID), "", f.verifier)
	require.NoError(t, err)
	_, err = f.panjar.ApproveRequest(f.ctx, uuid.MustParse(approved.ID), "", f.approver)
	require.NoError(t, err)
	_, err = f.panjar.RejectRequest(f.ctx, uuid.MustParse(rejected.ID), "", f.verifier)
	require.NoError(t, err)

	stats, err := newStatisticsService(f).GetStatistics(f.ctx, StatisticsFilter{}, f.approver)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-01", stats.StartDate)
	assert.Equal(t, "2026-10-14", stats.EndDate)
	assert.Nil(t, stats.UnitID)
	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, "750.00", stats.TotalAmount)
	assert.Equal(t, "250.00", stats.ApprovedAmount)

	require.Len(t, stats.ByStatus, len(workflow.AllStatuses))
	counts := map[string]int{}
	for _, s := range stats.ByStatus {
		counts[s.Status] = s.Count
	}
	assert.Equal(t, map[string]int{"pending": 1, "verified": 0, "approved": 1, "rejected": 1, "revision": 0}, counts)

	require.Len(t, stats.TopBudgetItems, 1)
	assert.Equal(t, f.budget.Name, stats.TopBudgetItems[0].BudgetItemName)
	assert.Equal(t, "Kurikulum", stats.TopBudgetItems[0].UnitName)
	assert.Equal(t, 3, stats.TopBudgetItems[0].Requests)
	assert.Equal(t, "750.00", stats.TopBudgetItems[0].TotalAmount)
}

func TestGetStatistics_ScopesAndValidation(t *testing.T) {
	f := newFixture(t)
	f.createRequest(t)
	svc := newStatisticsService(f)

	t.Run("verifier is pinned to own unit", func(t *testing.T) {
		stats, err := svc.GetStatistics(f.ctx, StatisticsFilter{UnitID: f.otherUnit.ID.String()}, f.verifier)
		require.NoError(t, err)
		require.NotNil(t, stats.UnitID)
		assert.Equal(t, f.unit.ID.String(), *stats.UnitID)
		assert.Equal(t, 1, stats.TotalRequests)
	})

	t.Run("approver filters by unit", func(t *testing.T) {
		stats, err := svc.GetStatistics(f.ctx, StatisticsFilter{UnitID: f.otherUnit.ID.String()}, f.approver)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalRequests)
		assert.Equal(t, "0.00", stats.TotalAmount)
		assert.Empty(t, stats.TopBudgetItems)
	})

	t.Run("range outside the request date", func(t *testing.T) {
		stats, err := svc.GetStatistics(f.ctx, StatisticsFilter{StartDate: "2026-09-01", EndDate: "2026-09-30"}, f.admin)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalRequests)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := svc.GetStatistics(f.ctx, StatisticsFilter{StartDate: "2026-10-10", EndDate: "2026-10-01"}, f.admin)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := svc.GetStatistics(f.ctx, StatisticsFilter{StartDate: "10/01/2026"}, f.admin)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unitless creator", func(t *testing.T) {
		actor := createActor(t, f.db, "bendahara", nil, workflow.RoleNameCreator)
		_, err := svc.GetStatistics(f.ctx, StatisticsFilter{}, actor)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
