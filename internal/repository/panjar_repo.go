package repository

import (
	"context"

	"panjar/internal/model"
	"panjar/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PanjarFilter narrows a request listing. Zero values mean "any".
type PanjarFilter struct {
	Status    workflow.Status
	UnitID    *uuid.UUID
	CreatedBy *uuid.UUID
}

type PanjarRepository interface {
	Create(ctx context.Context, req *model.PanjarRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PanjarRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PanjarRequest, error)
	List(ctx context.Context, filter PanjarFilter, offset, limit int) ([]model.PanjarRequest, int64, error)
	Update(ctx context.Context, req *model.PanjarRequest) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status workflow.Status, approvedBy *uuid.UUID) error
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type panjarRepository struct {
	db *gorm.DB
}

func NewPanjarRepository(db *gorm.DB) PanjarRepository {
	return &panjarRepository{db: db}
}

func (r *panjarRepository) Create(ctx context.Context, req *model.PanjarRequest) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(req).Error
}

func (r *panjarRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PanjarRequest, error) {
	var req model.PanjarRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *panjarRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PanjarRequest, error) {
	var req model.PanjarRequest
	err := GetDB(ctx, r.db).
		Preload("Unit").
		Preload("BudgetItem").
		Preload("Creator").
		Preload("Verifier").
		Preload("Approver").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no asc")
		}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *panjarRepository) List(ctx context.Context, filter PanjarFilter, offset, limit int) ([]model.PanjarRequest, int64, error) {
	var requests []model.PanjarRequest
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.UnitID != nil {
			db = db.Where("unit_id = ?", *filter.UnitID)
		}
		if filter.CreatedBy != nil {
			db = db.Where("created_by = ?", *filter.CreatedBy)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.PanjarRequest{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Scopes(scope).
		Preload("Unit").
		Preload("Creator").
		Order("request_date DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *panjarRepository) Update(ctx context.Context, req *model.PanjarRequest) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(req).Error
}

// UpdateStatus writes the derived status. approvedBy is only written when non-nil.
func (r *panjarRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status workflow.Status, approvedBy *uuid.UUID) error {
	updates := map[string]interface{}{"status": status}
	if approvedBy != nil {
		updates["approved_by"] = *approvedBy
	}
	return GetDB(ctx, r.db).Model(&model.PanjarRequest{}).Where("id = ?", id).Updates(updates).Error
}

func (r *panjarRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.PanjarRequest{}).Where("id = ?", id).Update("total_amount", total).Error
}

func (r *panjarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PanjarRequest{}).Error
}
