package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Unit is an organisational department that owns budgets, e.g. Kurikulum or Sarpras.
type Unit struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BudgetItem is a quarterly allocation inside a unit budget that panjar requests draw against.
type BudgetItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UnitID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	Unit      *Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Year      int             `gorm:"not null" json:"year"`
	Quarter   int             `gorm:"not null" json:"quarter"` // 1..4
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (b *BudgetItem) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
