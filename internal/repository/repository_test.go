package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"panjar/internal/database"
	"panjar/internal/model"
	"panjar/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedRoles(db))
	return db
}

// seedRequest stores a pending request with two items and returns it.
func seedRequest(t *testing.T, db *gorm.DB) (model.PanjarRequest, []model.PanjarItem) {
	t.Helper()

	unit := model.Unit{Code: "TU-" + uuid.NewString()[:8], Name: "Tata Usaha"}
	require.NoError(t, db.Create(&unit).Error)
	budget := model.BudgetItem{UnitID: unit.ID, Name: "Konsumsi Rapat", Year: 2026, Quarter: 4}
	require.NoError(t, db.Create(&budget).Error)
	user := model.User{Name: "Ani", Username: "ani-" + uuid.NewString()[:8], Email: uuid.NewString() + "@sekolah.test", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	req := model.PanjarRequest{
		UnitID:       unit.ID,
		BudgetItemID: budget.ID,
		CreatedBy:    user.ID,
		Status:       workflow.StatusPending,
		RequestDate:  time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		ReportStatus: model.ReportStatusUnreported,
	}
	require.NoError(t, NewPanjarRepository(db).Create(context.Background(), &req))

	items := []model.PanjarItem{
		{PanjarRequestID: req.ID, LineNo: 1, ItemName: "Snack", Quantity: 20, Price: decimal.NewFromInt(5000), Status: workflow.StatusPending},
		{PanjarRequestID: req.ID, LineNo: 2, ItemName: "Air mineral", Quantity: 2, Price: decimal.NewFromInt(40000), Status: workflow.StatusPending},
	}
	itemRepo := NewPanjarItemRepository(db)
	for i := range items {
		items[i].ComputeTotal()
		require.NoError(t, itemRepo.Create(context.Background(), &items[i]))
	}
	return req, items
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	txm := NewTransactionManager(db)
	unitRepo := NewUnitRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	var unitID uuid.UUID
	err := txm.RunInTx(ctx, func(txCtx context.Context) error {
		assert.True(t, InTx(txCtx))
		unit := model.Unit{Code: "LAB", Name: "Laboratorium"}
		if err := GetDB(txCtx, db).Create(&unit).Error; err != nil {
			return err
		}
		unitID = unit.ID
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = unitRepo.FindUnit(ctx, unitID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRunInTx_NestedCallsShareTransaction(t *testing.T) {
	db := newTestDB(t)
	txm := NewTransactionManager(db)
	ctx := context.Background()
	assert.False(t, InTx(ctx))

	err := txm.RunInTx(ctx, func(outer context.Context) error {
		return txm.RunInTx(outer, func(inner context.Context) error {
			assert.True(t, outer == inner, "nested call reuses the outer context")
			return GetDB(inner, db).Create(&model.Unit{Code: "PERPUS", Name: "Perpustakaan"}).Error
		})
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&model.Unit{}).Where("code = ?", "PERPUS").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestPanjarItemRepository_UpdateStatusGuardsVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewPanjarItemRepository(db)
	ctx := context.Background()
	_, items := seedRequest(t, db)
	item := items[0]
	require.Equal(t, 1, item.Version)

	require.NoError(t, repo.UpdateStatus(ctx, item.ID, 1, workflow.StatusVerified))

	err := repo.UpdateStatus(ctx, item.ID, 1, workflow.StatusRejected)
	assert.ErrorIs(t, err, ErrStaleVersion)

	stored, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusVerified, stored.Status)
	assert.Equal(t, 2, stored.Version)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), 1, workflow.StatusVerified), ErrStaleVersion)
}

func TestPanjarItemRepository_UpdateFieldsKeepsStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewPanjarItemRepository(db)
	ctx := context.Background()
	_, items := seedRequest(t, db)

	item := items[1]
	item.Quantity = 3
	item.Status = workflow.StatusApproved
	item.ComputeTotal()
	require.NoError(t, repo.UpdateFields(ctx, &item))

	stored, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Quantity)
	assert.True(t, decimal.NewFromInt(120000).Equal(stored.Total))
	assert.Equal(t, workflow.StatusPending, stored.Status)
	assert.Equal(t, 1, stored.Version)
}

func TestPanjarItemRepository_DeleteByRequestRemovesHistories(t *testing.T) {
	db := newTestDB(t)
	itemRepo := NewPanjarItemRepository(db)
	historyRepo := NewHistoryRepository(db)
	ctx := context.Background()
	req, items := seedRequest(t, db)

	for _, it := range items {
		require.NoError(t, historyRepo.Create(ctx, &model.PanjarItemHistory{
			PanjarItemID: it.ID,
			ReviewedBy:   req.CreatedBy,
			ReviewerRole: workflow.ReviewerCreator,
			Status:       workflow.StatusPending,
		}))
	}

	require.NoError(t, itemRepo.DeleteByRequest(ctx, req.ID))

	left, err := itemRepo.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	var n int64
	require.NoError(t, db.Model(&model.PanjarItemHistory{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestHistoryRepository_ListByItemOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()
	req, items := seedRequest(t, db)

	base := time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)
	for i, st := range []workflow.Status{workflow.StatusVerified, workflow.StatusApproved} {
		require.NoError(t, repo.Create(ctx, &model.PanjarItemHistory{
			PanjarItemID: items[0].ID,
			ReviewedBy:   req.CreatedBy,
			ReviewerRole: workflow.ReviewerAdmin,
			Status:       st,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	oldest, err := repo.ListByItem(ctx, items[0].ID, false)
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	assert.Equal(t, workflow.StatusVerified, oldest[0].Status)
	require.NotNil(t, oldest[0].Reviewer)
	assert.Equal(t, "Ani", oldest[0].Reviewer.Name)

	newest, err := repo.ListByItem(ctx, items[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, newest[0].Status)
}

func TestPanjarRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewPanjarRepository(db)
	ctx := context.Background()

	first, _ := seedRequest(t, db)
	second, _ := seedRequest(t, db)
	require.NoError(t, repo.UpdateStatus(ctx, second.ID, workflow.StatusApproved, &second.CreatedBy))

	all, total, err := repo.List(ctx, PanjarFilter{}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	approved, total, err := repo.List(ctx, PanjarFilter{Status: workflow.StatusApproved}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, second.ID, approved[0].ID)
	require.NotNil(t, approved[0].ApprovedBy)

	byUnit, total, err := repo.List(ctx, PanjarFilter{UnitID: &first.UnitID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.NotNil(t, byUnit[0].Unit)
	assert.Equal(t, "Tata Usaha", byUnit[0].Unit.Name)

	page, total, err := repo.List(ctx, PanjarFilter{}, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, page, 1)
}

func TestPanjarRepository_FindByIDWithRelations(t *testing.T) {
	db := newTestDB(t)
	repo := NewPanjarRepository(db)
	ctx := context.Background()
	req, _ := seedRequest(t, db)

	got, err := repo.FindByIDWithRelations(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 1, got.Items[0].LineNo)
	assert.Equal(t, 2, got.Items[1].LineNo)
	assert.NotNil(t, got.Creator)
	assert.Nil(t, got.Verifier)

	_, err = repo.FindByIDWithRelations(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
