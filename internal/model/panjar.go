package model

import (
	"time"

	"panjar/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Report status values for the realization report attached to a request.
const (
	ReportStatusUnreported = "unreported"
	ReportStatusSubmitted  = "submitted"
)

// PanjarRequest is a cash-advance request raised by a unit against a budget item.
// Status is derived from the item statuses except for the top-level review actions.
type PanjarRequest struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UnitID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	Unit         *Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	BudgetItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"budget_item_id"`
	BudgetItem   *BudgetItem     `gorm:"foreignKey:BudgetItemID" json:"budget_item,omitempty"`
	CreatedBy    uuid.UUID       `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator      *User           `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	VerifiedBy   *uuid.UUID      `gorm:"type:uuid" json:"verified_by"`
	Verifier     *User           `gorm:"foreignKey:VerifiedBy" json:"verifier,omitempty"`
	ApprovedBy   *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Approver     *User           `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	Status       workflow.Status `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"` // sum of item totals
	RequestDate  time.Time       `gorm:"type:date;not null" json:"request_date"`
	ReportStatus string          `gorm:"type:varchar(20);not null;default:'unreported'" json:"report_status"`
	Description  string          `gorm:"type:text" json:"description"`
	Items        []PanjarItem    `gorm:"foreignKey:PanjarRequestID" json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (PanjarRequest) TableName() string { return "panjar_requests" }

func (r *PanjarRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PanjarItem is one expense line of a panjar request.
type PanjarItem struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	PanjarRequestID uuid.UUID           `gorm:"type:uuid;not null;index" json:"panjar_request_id"`
	PanjarRequest   *PanjarRequest      `gorm:"foreignKey:PanjarRequestID" json:"panjar_request,omitempty"`
	LineNo          int                 `gorm:"not null;default:0" json:"line_no"`
	ItemName        string              `gorm:"type:varchar(255);not null" json:"item_name"`
	Spesification   string              `gorm:"column:spesification;type:text" json:"spesification"`
	Description     string              `gorm:"type:text" json:"description"`
	Quantity        int                 `gorm:"not null" json:"quantity"`
	Unit            string              `gorm:"type:varchar(30)" json:"unit"` // unit of measure: pcs, rim, paket
	Price           decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"price"`
	Total           decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"total"`
	Status          workflow.Status     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Version         int                 `gorm:"not null;default:1" json:"version"` // bumped on every status write
	Histories       []PanjarItemHistory `gorm:"foreignKey:PanjarItemID" json:"histories,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (PanjarItem) TableName() string { return "panjar_items" }

func (i *PanjarItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Version == 0 {
		i.Version = 1
	}
	return nil
}

// ComputeTotal sets Total to Price x Quantity.
func (i *PanjarItem) ComputeTotal() {
	i.Total = i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PanjarItemHistory is an append-only audit entry written for every item status change.
type PanjarItemHistory struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PanjarItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"panjar_item_id"`
	Note         *string         `gorm:"type:text" json:"note"`
	ReviewedBy   uuid.UUID       `gorm:"type:uuid;not null;index" json:"reviewed_by"`
	Reviewer     *User           `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewerRole string          `gorm:"type:varchar(20);not null" json:"reviewer_role"` // creator, verifier, approver, admin, unknown
	Status       workflow.Status `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

func (PanjarItemHistory) TableName() string { return "panjar_item_histories" }

func (h *PanjarItemHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
