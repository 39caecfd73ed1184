package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"panjar/internal/model"
	"panjar/internal/repository"
	"panjar/internal/workflow"
	"panjar/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PanjarService orchestrates request lifecycles and the request-level review actions.
type PanjarService interface {
	CreateWithItems(ctx context.Context, req CreatePanjarRequest, actor Actor) (PanjarResponse, error)
	UpdateWithItems(ctx context.Context, id uuid.UUID, req UpdatePanjarRequest, actor Actor) (PanjarResponse, error)
	GetRequest(ctx context.Context, id uuid.UUID) (PanjarResponse, error)
	ListRequests(ctx context.Context, filter PanjarFilter) ([]PanjarResponse, int64, error)
	DeleteRequest(ctx context.Context, id uuid.UUID, actor Actor) error
	VerifyRequest(ctx context.Context, id uuid.UUID, note string, actor Actor) (PanjarResponse, error)
	ApproveRequest(ctx context.Context, id uuid.UUID, note string, actor Actor) (PanjarResponse, error)
	RejectRequest(ctx context.Context, id uuid.UUID, note string, actor Actor) (PanjarResponse, error)
}

type panjarService struct {
	panjarRepo repository.PanjarRepository
	itemRepo   repository.PanjarItemRepository
	unitRepo   repository.UnitRepository
	auditRepo  repository.AuditRepository
	history    HistoryRecorder
	aggregator StatusAggregator
	txManager  repository.TransactionManager
	notifier   Notifier
	now        func() time.Time
}

func NewPanjarService(
	panjarRepo repository.PanjarRepository,
	itemRepo repository.PanjarItemRepository,
	unitRepo repository.UnitRepository,
	auditRepo repository.AuditRepository,
	history HistoryRecorder,
	aggregator StatusAggregator,
	txManager repository.TransactionManager,
	notifier Notifier,
) PanjarService {
	return &panjarService{
		panjarRepo: panjarRepo,
		itemRepo:   itemRepo,
		unitRepo:   unitRepo,
		auditRepo:  auditRepo,
		history:    history,
		aggregator: aggregator,
		txManager:  txManager,
		notifier:   notifierOrNop(notifier),
		now:        time.Now,
	}
}

// --- Lifecycle ---

func (s *panjarService) CreateWithItems(ctx context.Context, req CreatePanjarRequest, actor Actor) (PanjarResponse, error) {
	if err := validateDTO(req); err != nil {
		return PanjarResponse{}, err
	}

	unitID, err := parseID(req.UnitID, "unit_id")
	if err != nil {
		return PanjarResponse{}, err
	}
	budgetItemID, err := parseID(req.BudgetItemID, "budget_item_id")
	if err != nil {
		return PanjarResponse{}, err
	}
	requestDate, err := s.parseDate(req.RequestDate)
	if err != nil {
		return PanjarResponse{}, err
	}

	items, total, err := buildItems(uuid.Nil, req.Items)
	if err != nil {
		return PanjarResponse{}, err
	}

	panjar := model.PanjarRequest{
		UnitID:       unitID,
		BudgetItemID: budgetItemID,
		CreatedBy:    actor.UserID,
		Status:       workflow.StatusPending,
		TotalAmount:  total,
		RequestDate:  requestDate,
		ReportStatus: model.ReportStatusUnreported,
		Description:  req.Description,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkReferences(txCtx, unitID, budgetItemID); err != nil {
			return err
		}

		if err := s.panjarRepo.Create(txCtx, &panjar); err != nil {
			return fmt.Errorf("failed to create panjar request: %w", err)
		}
		for i := range items {
			items[i].PanjarRequestID = panjar.ID
			if err := s.itemRepo.Create(txCtx, &items[i]); err != nil {
				return fmt.Errorf("failed to create panjar item: %w", err)
			}
		}

		return s.audit(txCtx, actor, model.ActionCreatePanjar, panjar.ID, map[string]interface{}{
			"unit_id":        req.UnitID,
			"budget_item_id": req.BudgetItemID,
			"total_amount":   total.StringFixed(2),
			"items":          len(items),
		})
	})
	if err != nil {
		return PanjarResponse{}, err
	}

	s.notifier.Publish(Event{Type: EventRequestSaved, RequestID: panjar.ID, Status: panjar.Status, ActorID: actor.UserID})
	return s.GetRequest(ctx, panjar.ID)
}

func (s *panjarService) UpdateWithItems(ctx context.Context, id uuid.UUID, req UpdatePanjarRequest, actor Actor) (PanjarResponse, error) {
	if err := validateDTO(req); err != nil {
		return PanjarResponse{}, err
	}
	if req.Items != nil && len(req.Items) == 0 {
		return PanjarResponse{}, invalidf("items must not be empty when provided")
	}

	var status workflow.Status
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		panjar, err := s.panjarRepo.FindByID(txCtx, id)
		if err != nil {
			return lookupErr("panjar request", err)
		}
		if !canEditRequest(panjar, req, actor) {
			logger.Log.WithFields(logrus.Fields{
				"request_id": id,
				"status":     panjar.Status,
				"actor":      actor.UserID,
			}).Warn("panjar edit denied")
			return fmt.Errorf("%w: only the creator may edit a pending or revision request", ErrForbidden)
		}

		if err := s.applyRequestFields(panjar, req); err != nil {
			return err
		}
		if req.UnitID != nil || req.BudgetItemID != nil {
			if err := s.checkReferences(txCtx, panjar.UnitID, panjar.BudgetItemID); err != nil {
				return err
			}
		}

		if req.Items != nil {
			items, total, err := buildItems(panjar.ID, req.Items)
			if err != nil {
				return err
			}
			if err := s.itemRepo.DeleteByRequest(txCtx, panjar.ID); err != nil {
				return fmt.Errorf("failed to remove panjar items: %w", err)
			}
			for i := range items {
				if err := s.itemRepo.Create(txCtx, &items[i]); err != nil {
					return fmt.Errorf("failed to create panjar item: %w", err)
				}
			}
			panjar.TotalAmount = total
			// replaced items reset the sign-offs
			panjar.VerifiedBy = nil
			panjar.ApprovedBy = nil
		}

		if err := s.panjarRepo.Update(txCtx, panjar); err != nil {
			return fmt.Errorf("failed to update panjar request: %w", err)
		}

		status = panjar.Status
		if req.Items != nil {
			if status, err = s.aggregator.Recompute(txCtx, panjar.ID, &actor); err != nil {
				return err
			}
		}

		return s.audit(txCtx, actor, model.ActionUpdatePanjar, panjar.ID, map[string]interface{}{
			"items_replaced": req.Items != nil,
			"total_amount":   panjar.TotalAmount.StringFixed(2),
		})
	})
	if err != nil {
		return PanjarResponse{}, err
	}

	s.notifier.Publish(Event{Type: EventRequestSaved, RequestID: id, Status: status, ActorID: actor.UserID})
	return s.GetRequest(ctx, id)
}

func (s *panjarService) GetRequest(ctx context.Context, id uuid.UUID) (PanjarResponse, error) {
	panjar, err := s.panjarRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return PanjarResponse{}, lookupErr("panjar request", err)
	}
	return toPanjarResponse(*panjar), nil
}

func (s *panjarService) ListRequests(ctx context.Context, filter PanjarFilter) ([]PanjarResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var repoFilter repository.PanjarFilter
	if filter.Status != "" {
		st, err := workflow.ParseStatus(filter.Status)
		if err != nil {
			return nil, 0, invalidf("%s", err.Error())
		}
		repoFilter.Status = st
	}
	if filter.UnitID != "" {
		unitID, err := parseID(filter.UnitID, "unit_id")
		if err != nil {
			return nil, 0, err
		}
		repoFilter.UnitID = &unitID
	}

	offset := (filter.Page - 1) * filter.Limit
	requests, total, err := s.panjarRepo.List(ctx, repoFilter, offset, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch panjar requests: %w", err)
	}

	result := make([]PanjarResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toPanjarResponse(r))
	}
	return result, total, nil
}

// canEditRequest reports whether the actor may apply the update. Admins always
// may; the creator may while the request is pending or in revision, and may set
// the report status alone at any point.
func canEditRequest(p *model.PanjarRequest, req UpdatePanjarRequest, actor Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	if p.CreatedBy != actor.UserID {
		return false
	}
	return editableStatus(p.Status) || req.reportOnly()
}

// DeleteRequest removes a request with its items and their histories. The
// creator may delete while the request is still pending; admins always may.
func (s *panjarService) DeleteRequest(ctx context.Context, id uuid.UUID, actor Actor) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		panjar, err := s.panjarRepo.FindByID(txCtx, id)
		if err != nil {
			return lookupErr("panjar request", err)
		}

		ownPending := panjar.CreatedBy == actor.UserID && panjar.Status == workflow.StatusPending
		if !actor.IsAdmin() && !ownPending {
			return fmt.Errorf("%w: only the creator may delete a pending request", ErrForbidden)
		}

		if err := s.itemRepo.DeleteByRequest(txCtx, id); err != nil {
			return fmt.Errorf("failed to remove panjar items: %w", err)
		}
		if err := s.panjarRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete panjar request: %w", err)
		}

		return s.audit(txCtx, actor, model.ActionDeletePanjar, id, map[string]interface{}{
			"status":       panjar.Status,
			"total_amount": panjar.TotalAmount.StringFixed(2),
		})
	})
}

// --- Request-level review ---

// VerifyRequest lets a verifier of the request's unit verify a pending request.
// Every item is set to verified.
func (s *panjarService) VerifyRequest(ctx context.Context, id uuid.UUID, note string, actor Actor) (PanjarResponse, error) {
	return s.review(ctx, id, note, actor, workflow.StatusVerified, model.ActionVerifyPanjar,
		func(p *model.PanjarRequest) error {
			if !actor.IsAdmin() {
				if !actor.Roles.Has(workflow.RoleVerifier) {
					return fmt.Errorf("%w: only wakil-kepala-sekolah may verify", ErrForbidden)
				}
				if !actor.InUnit(p.UnitID) {
					return fmt.Errorf("%w: request belongs to another unit", ErrForbidden)
				}
			}
			if p.Status != workflow.StatusPending {
				return fmt.Errorf("%w: request is %s, expected pending", ErrForbidden, p.Status)
			}
			uid := actor.UserID
			p.VerifiedBy = &uid
			return nil
		})
}

// ApproveRequest lets the principal approve a verified request. Every item is set to approved.
func (s *panjarService) ApproveRequest(ctx context.Context, id uuid.UUID, note string, actor Actor) (PanjarResponse, error) {
	return s.review(ctx, id, note, actor, workflow.StatusApproved, model.ActionApprovePanjar,
		func(p *model.PanjarRequest) error {
			if !actor.IsAdmin() && !actor.Roles.Has(workflow.RoleApprover) {
				return fmt.Errorf("%w: only kepala-sekolah may approve", ErrForbidden)
			}
			if p.Status != workflow.StatusVerified {
				return fmt.Errorf("%w: request is %s, expected verified", ErrForbidden, p.Status)
			}
			uid := actor.UserID
			p.ApprovedBy = &uid
			return nil
		})
}

var rejectableFrom = map[workflow.Role][]workflow.Status{
	workflow.RoleVerifier: {workflow.StatusPending, workflow.StatusRevision},
	workflow.RoleApprover: {workflow.StatusVerified, workflow.StatusRevision},
	workflow.RoleAdmin: {
		workflow.StatusPending, workflow.StatusVerified, workflow.StatusApproved, workflow.StatusRevision,
	},
}

// RejectRequest rejects a request whose current status the actor's role may
// reject. Every item is set to rejected.
func (s *panjarService) RejectRequest(ctx context.Context, id uuid.UUID, note string, actor Actor) (PanjarResponse, error) {
	return s.review(ctx, id, note, actor, workflow.StatusRejected, model.ActionRejectPanjar,
		func(p *model.PanjarRequest) error {
			for _, r := range actor.Roles.Roles() {
				for _, st := range rejectableFrom[r] {
					if st == p.Status {
						return nil
					}
				}
			}
			return fmt.Errorf("%w: cannot reject a %s request", ErrForbidden, p.Status)
		})
}

// review runs a request-level action: guard, cascade to items with one history
// row each, persist the request, audit. All in one transaction.
func (s *panjarService) review(
	ctx context.Context,
	id uuid.UUID,
	note string,
	actor Actor,
	target workflow.Status,
	action string,
	guard func(p *model.PanjarRequest) error,
) (PanjarResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		panjar, err := s.panjarRepo.FindByID(txCtx, id)
		if err != nil {
			return lookupErr("panjar request", err)
		}
		from := panjar.Status

		if err := guard(panjar); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"request_id": id,
				"action":     action,
				"actor":      actor.UserID,
			}).WithError(err).Warn("panjar review action denied")
			return err
		}

		items, err := s.itemRepo.ListByRequest(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load panjar items: %w", err)
		}
		itemNote := workflow.FallbackNote(target, note)
		for i := range items {
			if items[i].Status == target {
				continue
			}
			if err := s.itemRepo.UpdateStatus(txCtx, items[i].ID, items[i].Version, target); err != nil {
				return fmt.Errorf("failed to update item status: %w", staleToConflict(err))
			}
			items[i].Status = target
			items[i].Version++
			if _, err := s.history.Record(txCtx, &items[i], actor, target, itemNote); err != nil {
				return err
			}
		}

		panjar.Status = target
		if err := s.panjarRepo.Update(txCtx, panjar); err != nil {
			return fmt.Errorf("failed to update panjar request: %w", err)
		}

		logger.Log.WithFields(logrus.Fields{
			"request_id": id,
			"from":       from,
			"to":         target,
			"actor":      actor.UserID,
		}).Info("panjar request reviewed")

		details := map[string]interface{}{"from": from, "to": target, "items": len(items)}
		if note != "" {
			details["note"] = note
		}
		return s.audit(txCtx, actor, action, id, details)
	})
	if err != nil {
		return PanjarResponse{}, err
	}

	s.notifier.Publish(Event{Type: EventRequestStatus, RequestID: id, Status: target, ActorID: actor.UserID})
	return s.GetRequest(ctx, id)
}

// --- Helpers ---

func (s *panjarService) checkReferences(ctx context.Context, unitID, budgetItemID uuid.UUID) error {
	if _, err := s.unitRepo.FindUnit(ctx, unitID); err != nil {
		return lookupErr("unit", err)
	}
	budget, err := s.unitRepo.FindBudgetItem(ctx, budgetItemID)
	if err != nil {
		return lookupErr("budget item", err)
	}
	if budget.UnitID != unitID {
		return invalidf("budget item does not belong to the unit")
	}
	return nil
}

func (s *panjarService) applyRequestFields(p *model.PanjarRequest, req UpdatePanjarRequest) error {
	if req.UnitID != nil {
		id, err := parseID(*req.UnitID, "unit_id")
		if err != nil {
			return err
		}
		p.UnitID = id
	}
	if req.BudgetItemID != nil {
		id, err := parseID(*req.BudgetItemID, "budget_item_id")
		if err != nil {
			return err
		}
		p.BudgetItemID = id
	}
	if req.RequestDate != nil {
		d, err := s.parseDate(*req.RequestDate)
		if err != nil {
			return err
		}
		p.RequestDate = d
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.ReportStatus != nil {
		p.ReportStatus = *req.ReportStatus
	}
	return nil
}

func (s *panjarService) parseDate(raw string) (time.Time, error) {
	if raw == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, invalidf("invalid request_date: %s", raw)
	}
	return d, nil
}

func (s *panjarService) audit(ctx context.Context, actor Actor, action string, requestID uuid.UUID, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	userID := actor.UserID
	entry := &model.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityID:   requestID.String(),
		EntityName: "panjar_request",
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// buildItems turns inputs into pending items numbered from 1 and returns their sum.
func buildItems(requestID uuid.UUID, inputs []ItemInput) ([]model.PanjarItem, decimal.Decimal, error) {
	items := make([]model.PanjarItem, 0, len(inputs))
	total := decimal.Zero
	for i, in := range inputs {
		item, err := buildItem(requestID, i+1, in)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item %d: %w", i+1, err)
		}
		total = total.Add(item.Total)
		items = append(items, item)
	}
	return items, total, nil
}
