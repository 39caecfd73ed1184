package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreatePanjar  = "CREATE_PANJAR"
	ActionUpdatePanjar  = "UPDATE_PANJAR"
	ActionDeletePanjar  = "DELETE_PANJAR"
	ActionVerifyPanjar  = "VERIFY_PANJAR"
	ActionApprovePanjar = "APPROVE_PANJAR"
	ActionRejectPanjar  = "REJECT_PANJAR"

	ActionCreatePanjarItem = "CREATE_PANJAR_ITEM"
	ActionDeletePanjarItem = "DELETE_PANJAR_ITEM"
	ActionBulkItemStatus   = "BULK_ITEM_STATUS"
)

// AuditLog tracks who did what to a panjar request and when.
// Item status changes are recorded separately in PanjarItemHistory.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for system actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"` // JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
