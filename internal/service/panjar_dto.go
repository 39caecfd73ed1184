package service

import (
	"time"

	"panjar/internal/model"
)

const dateLayout = "2006-01-02"

type CreatePanjarRequest struct {
	UnitID       string      `json:"unit_id" binding:"required,uuid"`
	BudgetItemID string      `json:"budget_item_id" binding:"required,uuid"`
	RequestDate  string      `json:"request_date" binding:"omitempty,datetime=2006-01-02"` // defaults to today
	Description  string      `json:"description"`
	Items        []ItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdatePanjarRequest edits a request. When Items is non-nil the item set is
// replaced wholesale and every new item starts pending.
type UpdatePanjarRequest struct {
	UnitID       *string     `json:"unit_id" binding:"omitempty,uuid"`
	BudgetItemID *string     `json:"budget_item_id" binding:"omitempty,uuid"`
	RequestDate  *string     `json:"request_date" binding:"omitempty,datetime=2006-01-02"`
	Description  *string     `json:"description"`
	ReportStatus *string     `json:"report_status" binding:"omitempty,oneof=unreported submitted"`
	Items        []ItemInput `json:"items" binding:"omitempty,dive"`
}

func (r UpdatePanjarRequest) reportOnly() bool {
	return r.ReportStatus != nil && r.UnitID == nil && r.BudgetItemID == nil &&
		r.RequestDate == nil && r.Description == nil && r.Items == nil
}

type ReviewRequest struct {
	Note string `json:"note"`
}

type PanjarFilter struct {
	Status string
	UnitID string
	Page   int
	Limit  int
}

type PanjarResponse struct {
	ID             string         `json:"id"`
	UnitID         string         `json:"unit_id"`
	UnitName       string         `json:"unit_name"`
	BudgetItemID   string         `json:"budget_item_id"`
	BudgetItemName string         `json:"budget_item_name"`
	CreatedBy      string         `json:"created_by"`
	CreatorName    string         `json:"creator_name"`
	VerifiedBy     *string        `json:"verified_by"`
	VerifierName   string         `json:"verifier_name"`
	ApprovedBy     *string        `json:"approved_by"`
	ApproverName   string         `json:"approver_name"`
	Status         string         `json:"status"`
	TotalAmount    string         `json:"total_amount"`
	RequestDate    string         `json:"request_date"`
	ReportStatus   string         `json:"report_status"`
	Description    string         `json:"description"`
	Items          []ItemResponse `json:"items,omitempty"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

func toPanjarResponse(r model.PanjarRequest) PanjarResponse {
	resp := PanjarResponse{
		ID:           r.ID.String(),
		UnitID:       r.UnitID.String(),
		BudgetItemID: r.BudgetItemID.String(),
		CreatedBy:    r.CreatedBy.String(),
		Status:       string(r.Status),
		TotalAmount:  r.TotalAmount.StringFixed(2),
		RequestDate:  r.RequestDate.Format(dateLayout),
		ReportStatus: r.ReportStatus,
		Description:  r.Description,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
	}

	if r.Unit != nil {
		resp.UnitName = r.Unit.Name
	}
	if r.BudgetItem != nil {
		resp.BudgetItemName = r.BudgetItem.Name
	}
	if r.Creator != nil {
		resp.CreatorName = r.Creator.Name
	}
	if r.VerifiedBy != nil {
		s := r.VerifiedBy.String()
		resp.VerifiedBy = &s
	}
	if r.Verifier != nil {
		resp.VerifierName = r.Verifier.Name
	}
	if r.ApprovedBy != nil {
		s := r.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if r.Approver != nil {
		resp.ApproverName = r.Approver.Name
	}

	for _, it := range r.Items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	return resp
}
