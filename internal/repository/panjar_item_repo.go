package repository

import (
	"context"
	"errors"

	"panjar/internal/model"
	"panjar/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleVersion is returned when a guarded update finds the row already changed.
var ErrStaleVersion = errors.New("row version is stale")

type PanjarItemRepository interface {
	Create(ctx context.Context, item *model.PanjarItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PanjarItem, error)
	FindByIDWithRequest(ctx context.Context, id uuid.UUID) (*model.PanjarItem, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.PanjarItem, error)
	UpdateFields(ctx context.Context, item *model.PanjarItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status workflow.Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByRequest(ctx context.Context, requestID uuid.UUID) error
}

type panjarItemRepository struct {
	db *gorm.DB
}

func NewPanjarItemRepository(db *gorm.DB) PanjarItemRepository {
	return &panjarItemRepository{db: db}
}

func (r *panjarItemRepository) Create(ctx context.Context, item *model.PanjarItem) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(item).Error
}

func (r *panjarItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PanjarItem, error) {
	var item model.PanjarItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *panjarItemRepository) FindByIDWithRequest(ctx context.Context, id uuid.UUID) (*model.PanjarItem, error) {
	var item model.PanjarItem
	if err := GetDB(ctx, r.db).Preload("PanjarRequest").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *panjarItemRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.PanjarItem, error) {
	var items []model.PanjarItem
	if err := GetDB(ctx, r.db).Where("panjar_request_id = ?", requestID).Order("line_no asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateFields persists descriptive fields and the total. Status and version
// only change through UpdateStatus.
func (r *panjarItemRepository) UpdateFields(ctx context.Context, item *model.PanjarItem) error {
	return GetDB(ctx, r.db).Model(&model.PanjarItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"item_name":     item.ItemName,
		"spesification": item.Spesification,
		"description":   item.Description,
		"quantity":      item.Quantity,
		"unit":          item.Unit,
		"price":         item.Price,
		"total":         item.Total,
	}).Error
}

// UpdateStatus sets the status only if the row still has expectedVersion,
// bumping the version. ErrStaleVersion signals a lost update.
func (r *panjarItemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status workflow.Status) error {
	res := GetDB(ctx, r.db).Model(&model.PanjarItem{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}

// Delete removes an item together with its history rows.
func (r *panjarItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("panjar_item_id = ?", id).Delete(&model.PanjarItemHistory{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.PanjarItem{}).Error
}

// DeleteByRequest removes every item of a request together with their history rows.
func (r *panjarItemRepository) DeleteByRequest(ctx context.Context, requestID uuid.UUID) error {
	db := GetDB(ctx, r.db)
	itemIDs := db.Model(&model.PanjarItem{}).Select("id").Where("panjar_request_id = ?", requestID)
	if err := db.Where("panjar_item_id IN (?)", itemIDs).Delete(&model.PanjarItemHistory{}).Error; err != nil {
		return err
	}
	return db.Where("panjar_request_id = ?", requestID).Delete(&model.PanjarItem{}).Error
}
