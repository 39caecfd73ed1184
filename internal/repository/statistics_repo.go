package repository

import (
	"context"
	"fmt"
	"time"

	"panjar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatisticsFilter bounds the aggregated requests by request_date and optionally by unit.
type StatisticsFilter struct {
	UnitID *uuid.UUID
	Start  time.Time
	End    time.Time
}

type StatisticsRepository interface {
	SummaryByStatus(ctx context.Context, filter StatisticsFilter) ([]model.StatusSummary, error)
	TopBudgetItems(ctx context.Context, filter StatisticsFilter, limit int) ([]model.BudgetRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (f StatisticsFilter) scope(db *gorm.DB) *gorm.DB {
	db = db.Where("panjar_requests.request_date >= ? AND panjar_requests.request_date <= ?", f.Start, f.End)
	if f.UnitID != nil {
		db = db.Where("panjar_requests.unit_id = ?", *f.UnitID)
	}
	return db
}

func (r *statisticsRepository) SummaryByStatus(ctx context.Context, filter StatisticsFilter) ([]model.StatusSummary, error) {
	var rows []model.StatusSummary
	err := GetDB(ctx, r.db).Table("panjar_requests").
		Select("panjar_requests.status as status, COUNT(*) as count, COALESCE(CAST(SUM(panjar_requests.total_amount) AS TEXT), '0') as amount").
		Scopes(filter.scope).
		Group("panjar_requests.status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query status summary: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) TopBudgetItems(ctx context.Context, filter StatisticsFilter, limit int) ([]model.BudgetRanking, error) {
	var rankings []model.BudgetRanking
	err := GetDB(ctx, r.db).Table("panjar_requests").
		Select("budget_items.id as budget_item_id, budget_items.name as budget_item_name, units.name as unit_name, COUNT(panjar_requests.id) as requests, COALESCE(CAST(SUM(panjar_requests.total_amount) AS TEXT), '0') as total_amount").
		Joins("JOIN budget_items ON budget_items.id = panjar_requests.budget_item_id").
		Joins("JOIN units ON units.id = budget_items.unit_id").
		Scopes(filter.scope).
		Group("budget_items.id, budget_items.name, units.name").
		Order("SUM(panjar_requests.total_amount) DESC").
		Limit(limit).
		Scan(&rankings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top budget items: %w", err)
	}
	return rankings, nil
}
