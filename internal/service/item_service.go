package service

import (
	"context"
	"encoding/json"
	"fmt"

	"panjar/internal/model"
	"panjar/internal/repository"
	"panjar/internal/workflow"
	"panjar/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ItemService is the item status engine. Every mutating call runs in one
// transaction: item write, history row, and request recompute commit together.
type ItemService interface {
	GetItem(ctx context.Context, id uuid.UUID) (ItemResponse, error)
	CreateItem(ctx context.Context, requestID uuid.UUID, in ItemInput, actor Actor) (ItemResponse, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest, actor Actor) (ItemResponse, error)
	DeleteItem(ctx context.Context, id uuid.UUID, actor Actor) error
	UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, actor Actor) (ItemResponse, error)
	BulkUpdateStatus(ctx context.Context, req BulkStatusRequest, actor Actor) ([]ItemResponse, error)
	GetHistory(ctx context.Context, id uuid.UUID) ([]HistoryResponse, error)
	GetTimeline(ctx context.Context, id uuid.UUID) ([]HistoryResponse, error)
	AllowedTransitions(ctx context.Context, id uuid.UUID, actor Actor) ([]string, error)
}

type itemService struct {
	itemRepo   repository.PanjarItemRepository
	panjarRepo repository.PanjarRepository
	auditRepo  repository.AuditRepository
	history    HistoryRecorder
	aggregator StatusAggregator
	txManager  repository.TransactionManager
	notifier   Notifier
}

func NewItemService(
	itemRepo repository.PanjarItemRepository,
	panjarRepo repository.PanjarRepository,
	auditRepo repository.AuditRepository,
	history HistoryRecorder,
	aggregator StatusAggregator,
	txManager repository.TransactionManager,
	notifier Notifier,
) ItemService {
	return &itemService{
		itemRepo:   itemRepo,
		panjarRepo: panjarRepo,
		auditRepo:  auditRepo,
		history:    history,
		aggregator: aggregator,
		txManager:  txManager,
		notifier:   notifierOrNop(notifier),
	}
}

func (s *itemService) GetItem(ctx context.Context, id uuid.UUID) (ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return ItemResponse{}, lookupErr("panjar item", err)
	}
	return toItemResponse(*item), nil
}

func (s *itemService) GetHistory(ctx context.Context, id uuid.UUID) ([]HistoryResponse, error) {
	return s.history.GetHistory(ctx, id)
}

func (s *itemService) GetTimeline(ctx context.Context, id uuid.UUID) ([]HistoryResponse, error) {
	return s.history.GetTimeline(ctx, id)
}

// AllowedTransitions lists the statuses the actor may move the item to.
func (s *itemService) AllowedTransitions(ctx context.Context, id uuid.UUID, actor Actor) ([]string, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr("panjar item", err)
	}

	targets := workflow.AllowedTargets(actor.Roles, item.Status)
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, string(t))
	}
	return out, nil
}

func (s *itemService) CreateItem(ctx context.Context, requestID uuid.UUID, in ItemInput, actor Actor) (ItemResponse, error) {
	if err := validateDTO(in); err != nil {
		return ItemResponse{}, err
	}

	var item model.PanjarItem
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.panjarRepo.FindByID(txCtx, requestID); err != nil {
			return lookupErr("panjar request", err)
		}

		existing, err := s.itemRepo.ListByRequest(txCtx, requestID)
		if err != nil {
			return fmt.Errorf("failed to load panjar items: %w", err)
		}
		lineNo := 1
		for _, e := range existing {
			if e.LineNo >= lineNo {
				lineNo = e.LineNo + 1
			}
		}

		item, err = buildItem(requestID, lineNo, in)
		if err != nil {
			return err
		}
		if err := s.itemRepo.Create(txCtx, &item); err != nil {
			return fmt.Errorf("failed to create panjar item: %w", err)
		}

		if _, err := s.aggregator.RecomputeTotal(txCtx, requestID); err != nil {
			return err
		}
		if _, err := s.aggregator.Recompute(txCtx, requestID, &actor); err != nil {
			return err
		}

		return s.audit(txCtx, actor, model.ActionCreatePanjarItem, item.ID, item.ItemName, map[string]interface{}{
			"panjar_request_id": requestID.String(),
			"quantity":          item.Quantity,
			"price":             item.Price.StringFixed(2),
		})
	})
	if err != nil {
		return ItemResponse{}, err
	}

	return toItemResponse(item), nil
}

// UpdateItem edits descriptive fields and recomputes the request total. Field
// edits belong to admins and to the request's creator while the item is open.
// A supplied status is recorded with the fixed "Item telah diubah" note; when it
// differs from the current one it is applied as an authorized transition, when it
// matches only the history row is written and the creator rule applies.
func (s *itemService) UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest, actor Actor) (ItemResponse, error) {
	if err := validateDTO(req); err != nil {
		return ItemResponse{}, err
	}

	var item *model.PanjarItem
	var statusChanged bool
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		item, err = s.itemRepo.FindByIDWithRequest(txCtx, id)
		if err != nil {
			return lookupErr("panjar item", err)
		}

		sameStatus := req.Status != nil && workflow.Status(*req.Status) == item.Status
		if (req.hasFieldChanges() || sameStatus) && !canEditItem(item, actor) {
			logger.Log.WithFields(logrus.Fields{
				"item_id": item.ID,
				"status":  item.Status,
				"actor":   actor.UserID,
			}).Warn("item edit denied")
			return fmt.Errorf("%w: only the creator may edit a pending or revision item", ErrForbidden)
		}

		if req.hasFieldChanges() {
			if err := applyItemFields(item, req); err != nil {
				return err
			}
			if err := s.itemRepo.UpdateFields(txCtx, item); err != nil {
				return fmt.Errorf("failed to update panjar item: %w", err)
			}
			if _, err := s.aggregator.RecomputeTotal(txCtx, item.PanjarRequestID); err != nil {
				return err
			}
		}

		switch {
		case req.Status == nil:
			return nil
		case sameStatus:
			_, err = s.history.Record(txCtx, item, actor, item.Status, workflow.EditedNote)
			return err
		}

		if err := s.applyStatus(txCtx, item, workflow.Status(*req.Status), workflow.EditedNote, actor); err != nil {
			return err
		}
		statusChanged = true
		_, err = s.aggregator.Recompute(txCtx, item.PanjarRequestID, &actor)
		return err
	})
	if err != nil {
		return ItemResponse{}, err
	}

	if statusChanged {
		s.publishItem(item, actor)
	}
	return toItemResponse(*item), nil
}

// canEditItem reports whether the actor may change an item's fields. The item
// must carry its request.
func canEditItem(item *model.PanjarItem, actor Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	return item.PanjarRequest != nil &&
		item.PanjarRequest.CreatedBy == actor.UserID &&
		editableStatus(item.Status)
}

func editableStatus(st workflow.Status) bool {
	return st == workflow.StatusPending || st == workflow.StatusRevision
}

// DeleteItem removes an item still open for editing. Admins may delete any item.
func (s *itemService) DeleteItem(ctx context.Context, id uuid.UUID, actor Actor) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.itemRepo.FindByID(txCtx, id)
		if err != nil {
			return lookupErr("panjar item", err)
		}

		if !editableStatus(item.Status) && !actor.IsAdmin() {
			return fmt.Errorf("%w: item is already %s", ErrForbidden, item.Status)
		}

		if err := s.itemRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete panjar item: %w", err)
		}
		if _, err := s.aggregator.RecomputeTotal(txCtx, item.PanjarRequestID); err != nil {
			return err
		}
		if _, err := s.aggregator.Recompute(txCtx, item.PanjarRequestID, &actor); err != nil {
			return err
		}

		return s.audit(txCtx, actor, model.ActionDeletePanjarItem, item.ID, item.ItemName, map[string]interface{}{
			"panjar_request_id": item.PanjarRequestID.String(),
			"status":            item.Status,
		})
	})
}

func (s *itemService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, actor Actor) (ItemResponse, error) {
	if err := validateDTO(req); err != nil {
		return ItemResponse{}, err
	}
	to := workflow.Status(req.Status)

	var item *model.PanjarItem
	var requestStatus workflow.Status
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		item, err = s.itemRepo.FindByIDWithRequest(txCtx, id)
		if err != nil {
			return lookupErr("panjar item", err)
		}
		if req.Version != nil && *req.Version != item.Version {
			return ErrConcurrentUpdate
		}

		if err := s.applyStatus(txCtx, item, to, workflow.FallbackNote(to, req.Note), actor); err != nil {
			return err
		}

		requestStatus, err = s.aggregator.Recompute(txCtx, item.PanjarRequestID, &actor)
		return err
	})
	if err != nil {
		return ItemResponse{}, err
	}

	s.publishItem(item, actor)
	s.publishRequest(item.PanjarRequestID, requestStatus, actor)
	return toItemResponse(*item), nil
}

type bulkEntry struct {
	id      uuid.UUID
	status  workflow.Status
	note    string
	version *int
}

// BulkUpdateStatus applies every entry or none. Each affected request is
// recomputed once, after all items are written.
func (s *itemService) BulkUpdateStatus(ctx context.Context, req BulkStatusRequest, actor Actor) ([]ItemResponse, error) {
	if err := validateDTO(req); err != nil {
		return nil, err
	}

	entries := make([]bulkEntry, 0, len(req.Items))
	for _, it := range req.Items {
		id, err := parseID(it.ID, "item id")
		if err != nil {
			return nil, err
		}
		entries = append(entries, bulkEntry{id: id, status: workflow.Status(it.Status), note: it.Note, version: it.Version})
	}

	updated := make([]model.PanjarItem, 0, len(entries))
	var requestIDs []uuid.UUID
	requestStatus := make(map[uuid.UUID]workflow.Status)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		seen := make(map[uuid.UUID]bool)
		for i, e := range entries {
			item, err := s.itemRepo.FindByID(txCtx, e.id)
			if err != nil {
				return fmt.Errorf("item %d: %w", i+1, lookupErr("panjar item", err))
			}
			if e.version != nil && *e.version != item.Version {
				return fmt.Errorf("item %d: %w", i+1, ErrConcurrentUpdate)
			}
			if err := s.applyStatus(txCtx, item, e.status, workflow.FallbackNote(e.status, e.note), actor); err != nil {
				return fmt.Errorf("item %d: %w", i+1, err)
			}

			updated = append(updated, *item)
			if !seen[item.PanjarRequestID] {
				seen[item.PanjarRequestID] = true
				requestIDs = append(requestIDs, item.PanjarRequestID)
			}
		}

		for _, rid := range requestIDs {
			st, err := s.aggregator.Recompute(txCtx, rid, &actor)
			if err != nil {
				return err
			}
			requestStatus[rid] = st
		}

		return s.audit(txCtx, actor, model.ActionBulkItemStatus, uuid.Nil, "", map[string]interface{}{
			"items":    len(entries),
			"requests": len(requestIDs),
		})
	})
	if err != nil {
		return nil, err
	}

	res := make([]ItemResponse, 0, len(updated))
	for i := range updated {
		s.publishItem(&updated[i], actor)
		res = append(res, toItemResponse(updated[i]))
	}
	for _, rid := range requestIDs {
		s.publishRequest(rid, requestStatus[rid], actor)
	}
	return res, nil
}

// applyStatus authorizes and persists one item transition and records its history.
// It must run inside a transaction.
func (s *itemService) applyStatus(ctx context.Context, item *model.PanjarItem, to workflow.Status, note string, actor Actor) error {
	from := item.Status
	fields := logrus.Fields{
		"item_id": item.ID,
		"from":    from,
		"to":      to,
		"actor":   actor.UserID,
	}

	if err := workflow.Authorize(actor.Roles, from, to); err != nil {
		logger.Log.WithFields(fields).WithField("roles", actor.Roles.Names()).Warn("item status transition denied")
		return err
	}

	if err := s.itemRepo.UpdateStatus(ctx, item.ID, item.Version, to); err != nil {
		return fmt.Errorf("failed to update item status: %w", staleToConflict(err))
	}
	item.Status = to
	item.Version++

	if _, err := s.history.Record(ctx, item, actor, to, note); err != nil {
		return err
	}

	logger.Log.WithFields(fields).Info("item status changed")
	return nil
}

func (s *itemService) audit(ctx context.Context, actor Actor, action string, entityID uuid.UUID, name string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	userID := actor.UserID
	entry := &model.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityName: name,
		Details:    string(payload),
	}
	if entityID != uuid.Nil {
		entry.EntityID = entityID.String()
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *itemService) publishItem(item *model.PanjarItem, actor Actor) {
	id := item.ID
	s.notifier.Publish(Event{
		Type:      EventItemStatus,
		RequestID: item.PanjarRequestID,
		ItemID:    &id,
		Status:    item.Status,
		ActorID:   actor.UserID,
	})
}

func (s *itemService) publishRequest(requestID uuid.UUID, status workflow.Status, actor Actor) {
	s.notifier.Publish(Event{
		Type:      EventRequestStatus,
		RequestID: requestID,
		Status:    status,
		ActorID:   actor.UserID,
	})
}

// --- Helpers ---

func buildItem(requestID uuid.UUID, lineNo int, in ItemInput) (model.PanjarItem, error) {
	price, err := parseAmount(in.Price, "price")
	if err != nil {
		return model.PanjarItem{}, err
	}

	item := model.PanjarItem{
		PanjarRequestID: requestID,
		LineNo:          lineNo,
		ItemName:        in.ItemName,
		Spesification:   in.Spesification,
		Description:     in.Description,
		Quantity:        in.Quantity,
		Unit:            in.Unit,
		Price:           price,
		Status:          workflow.StatusPending,
		Version:         1,
	}
	item.ComputeTotal()
	return item, nil
}

func applyItemFields(item *model.PanjarItem, req UpdateItemRequest) error {
	if req.ItemName != nil {
		item.ItemName = *req.ItemName
	}
	if req.Spesification != nil {
		item.Spesification = *req.Spesification
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.Price != nil {
		price, err := parseAmount(*req.Price, "price")
		if err != nil {
			return err
		}
		item.Price = price
	}
	item.ComputeTotal()
	return nil
}
