package repository

import (
	"context"

	"panjar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnitRepository resolves the organisational references a panjar request points at.
type UnitRepository interface {
	FindUnit(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	FindBudgetItem(ctx context.Context, id uuid.UUID) (*model.BudgetItem, error)
}

type unitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) FindUnit(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	var unit model.Unit
	if err := GetDB(ctx, r.db).First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) FindBudgetItem(ctx context.Context, id uuid.UUID) (*model.BudgetItem, error) {
	var item model.BudgetItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
