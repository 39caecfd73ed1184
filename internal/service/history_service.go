package service

import (
	"context"
	"fmt"
	"time"

	"panjar/internal/model"
	"panjar/internal/repository"
	"panjar/internal/workflow"

	"github.com/google/uuid"
)

type HistoryResponse struct {
	ID           string  `json:"id"`
	PanjarItemID string  `json:"panjar_item_id"`
	Note         *string `json:"note"`
	ReviewedBy   string  `json:"reviewed_by"`
	ReviewerName string  `json:"reviewer_name"`
	ReviewerRole string  `json:"reviewer_role"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
}

// HistoryRecorder appends and reads item audit trails.
type HistoryRecorder interface {
	Record(ctx context.Context, item *model.PanjarItem, actor Actor, status workflow.Status, note string) (*model.PanjarItemHistory, error)
	GetHistory(ctx context.Context, itemID uuid.UUID) ([]HistoryResponse, error)
	GetTimeline(ctx context.Context, itemID uuid.UUID) ([]HistoryResponse, error)
}

type historyRecorder struct {
	historyRepo repository.HistoryRepository
	itemRepo    repository.PanjarItemRepository
	now         func() time.Time
}

func NewHistoryRecorder(historyRepo repository.HistoryRepository, itemRepo repository.PanjarItemRepository) HistoryRecorder {
	return &historyRecorder{historyRepo: historyRepo, itemRepo: itemRepo, now: time.Now}
}

// Record writes one history row labelled with the actor's highest reviewer role.
// An empty note is stored as NULL.
func (r *historyRecorder) Record(ctx context.Context, item *model.PanjarItem, actor Actor, status workflow.Status, note string) (*model.PanjarItemHistory, error) {
	entry := &model.PanjarItemHistory{
		PanjarItemID: item.ID,
		ReviewedBy:   actor.UserID,
		ReviewerRole: workflow.ReviewerRole(actor.Roles),
		Status:       status,
		CreatedAt:    r.now(),
	}
	if note != "" {
		entry.Note = &note
	}

	if err := r.historyRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to write item history: %w", err)
	}
	return entry, nil
}

// GetHistory returns the item's history, most recent first.
func (r *historyRecorder) GetHistory(ctx context.Context, itemID uuid.UUID) ([]HistoryResponse, error) {
	return r.list(ctx, itemID, true)
}

// GetTimeline returns the item's history in chronological order.
func (r *historyRecorder) GetTimeline(ctx context.Context, itemID uuid.UUID) ([]HistoryResponse, error) {
	return r.list(ctx, itemID, false)
}

func (r *historyRecorder) list(ctx context.Context, itemID uuid.UUID, newestFirst bool) ([]HistoryResponse, error) {
	if _, err := r.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, lookupErr("panjar item", err)
	}

	entries, err := r.historyRepo.ListByItem(ctx, itemID, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item history: %w", err)
	}

	res := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toHistoryResponse(e))
	}
	return res, nil
}

func toHistoryResponse(h model.PanjarItemHistory) HistoryResponse {
	resp := HistoryResponse{
		ID:           h.ID.String(),
		PanjarItemID: h.PanjarItemID.String(),
		Note:         h.Note,
		ReviewedBy:   h.ReviewedBy.String(),
		ReviewerRole: h.ReviewerRole,
		Status:       string(h.Status),
		CreatedAt:    h.CreatedAt.Format(time.RFC3339),
	}
	if h.Reviewer != nil {
		resp.ReviewerName = h.Reviewer.Name
	}
	return resp
}
