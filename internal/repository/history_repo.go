package repository

import (
	"context"

	"panjar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository stores item history rows. Rows are never updated.
type HistoryRepository interface {
	Create(ctx context.Context, entry *model.PanjarItemHistory) error
	ListByItem(ctx context.Context, itemID uuid.UUID, newestFirst bool) ([]model.PanjarItemHistory, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, entry *model.PanjarItemHistory) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(entry).Error
}

func (r *historyRepository) ListByItem(ctx context.Context, itemID uuid.UUID, newestFirst bool) ([]model.PanjarItemHistory, error) {
	order := "created_at asc"
	if newestFirst {
		order = "created_at desc"
	}

	var entries []model.PanjarItemHistory
	err := GetDB(ctx, r.db).
		Preload("Reviewer").
		Where("panjar_item_id = ?", itemID).
		Order(order).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
