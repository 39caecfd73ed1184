package service

import (
	"context"
	"fmt"

	"panjar/internal/repository"
	"panjar/internal/workflow"
	"panjar/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StatusAggregator keeps a request's derived columns in line with its items.
type StatusAggregator interface {
	// Recompute derives the request status from its items and persists it when
	// it changed. actor may be nil for system-initiated recomputes.
	Recompute(ctx context.Context, requestID uuid.UUID, actor *Actor) (workflow.Status, error)
	// RecomputeTotal sets total_amount to the sum of the item totals.
	RecomputeTotal(ctx context.Context, requestID uuid.UUID) (decimal.Decimal, error)
}

type statusAggregator struct {
	panjarRepo repository.PanjarRepository
	itemRepo   repository.PanjarItemRepository
}

func NewStatusAggregator(panjarRepo repository.PanjarRepository, itemRepo repository.PanjarItemRepository) StatusAggregator {
	return &statusAggregator{panjarRepo: panjarRepo, itemRepo: itemRepo}
}

func (a *statusAggregator) Recompute(ctx context.Context, requestID uuid.UUID, actor *Actor) (workflow.Status, error) {
	req, err := a.panjarRepo.FindByID(ctx, requestID)
	if err != nil {
		return "", lookupErr("panjar request", err)
	}

	items, err := a.itemRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("failed to load panjar items: %w", err)
	}

	statuses := make([]workflow.Status, 0, len(items))
	for _, it := range items {
		statuses = append(statuses, it.Status)
	}

	next, ok := workflow.Aggregate(statuses)
	if !ok || next == req.Status {
		return req.Status, nil
	}

	var approvedBy *uuid.UUID
	if next == workflow.StatusApproved && actor != nil && actor.Roles.Has(workflow.RoleApprover) {
		id := actor.UserID
		approvedBy = &id
	}

	if err := a.panjarRepo.UpdateStatus(ctx, requestID, next, approvedBy); err != nil {
		return "", fmt.Errorf("failed to update panjar request status: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"request_id": requestID,
		"from":       req.Status,
		"to":         next,
	}).Info("panjar request status recomputed")

	return next, nil
}

func (a *statusAggregator) RecomputeTotal(ctx context.Context, requestID uuid.UUID) (decimal.Decimal, error) {
	items, err := a.itemRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load panjar items: %w", err)
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total)
	}

	if err := a.panjarRepo.UpdateTotal(ctx, requestID, total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update panjar total: %w", err)
	}
	return total, nil
}
