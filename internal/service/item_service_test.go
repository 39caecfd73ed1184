package service

import (
	"context"
	"errors"
	"testing"

	"panjar/internal/model"
	"panjar/internal/repository"
	"panjar/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStatus_VerifierVerifiesItem(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[0].ID

	resp := f.setStatus(t, itemID, workflow.StatusVerified, f.verifier)
	assert.Equal(t, "verified", resp.Status)
	assert.Equal(t, 2, resp.Version)

	history, err := f.items.GetHistory(f.ctx, uuid.MustParse(itemID))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "verified", history[0].Status)
	assert.Equal(t, workflow.ReviewerVerifier, history[0].ReviewerRole)
	assert.Equal(t, f.verifier.UserID.String(), history[0].ReviewedBy)
	require.NotNil(t, history[0].Note)
	assert.Equal(t, "Item telah di-verified", *history[0].Note)

	// one item verified, one pending: mixed default keeps the request pending
	assert.Equal(t, workflow.StatusPending, f.request(t, req.ID).Status)

	assert.Len(t, f.notifier.ofType(EventItemStatus), 1)
}

func TestUpdateStatus_KeepsExplicitNote(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := uuid.MustParse(req.Items[0].ID)

	_, err := f.items.UpdateStatus(f.ctx, itemID, UpdateStatusRequest{Status: "revision", Note: "Harga terlalu tinggi"}, f.verifier)
	require.NoError(t, err)

	history, err := f.items.GetHistory(f.ctx, itemID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Harga terlalu tinggi", *history[0].Note)
	assert.Equal(t, workflow.StatusRevision, f.request(t, req.ID).Status)
}

func TestUpdateStatus_DeniedLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[0].ID

	// kepala-sekolah cannot act on a pending item
	_, err := f.items.UpdateStatus(f.ctx, uuid.MustParse(itemID), UpdateStatusRequest{Status: "approved"}, f.approver)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorizedTransition)
	assert.Equal(t, "Invalid status transition or insufficient permissions", err.Error())

	item := f.item(t, itemID)
	assert.Equal(t, workflow.StatusPending, item.Status)
	assert.Equal(t, 1, item.Version)
	assert.Zero(t, f.historyCount(t, itemID))
	assert.Empty(t, f.notifier.ofType(EventItemStatus))
}

func TestUpdateStatus_RoleUnion(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[0].ID

	_, err := f.items.UpdateStatus(f.ctx, uuid.MustParse(itemID), UpdateStatusRequest{Status: "approved"}, f.creator)
	require.ErrorIs(t, err, ErrUnauthorizedTransition)

	both := NewActor(f.creator.UserID, f.creator.UnitID, workflow.RoleNameCreator, workflow.RoleNameAdmin)
	resp := f.setStatus(t, itemID, workflow.StatusApproved, both)
	assert.Equal(t, "approved", resp.Status)
}

func TestUpdateStatus_ReviewerRolePrefersAdmin(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[0].ID

	boss := NewActor(f.approver.UserID, nil, workflow.RoleNameApprover, workflow.RoleNameAdmin)
	f.setStatus(t, itemID, workflow.StatusVerified, boss)

	history, err := f.items.GetHistory(f.ctx, uuid.MustParse(itemID))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.ReviewerAdmin, history[0].ReviewerRole)
}

func TestUpdateStatus_VersionMismatch(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := uuid.MustParse(req.Items[0].ID)

	stale := 7
	_, err := f.items.UpdateStatus(f.ctx, itemID, UpdateStatusRequest{Status: "verified", Version: &stale}, f.verifier)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)

	current := 1
	resp, err := f.items.UpdateStatus(f.ctx, itemID, UpdateStatusRequest{Status: "verified", Version: &current}, f.verifier)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Version)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.items.UpdateStatus(f.ctx, uuid.New(), UpdateStatusRequest{Status: "verified"}, f.verifier)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)

	_, err := f.items.UpdateStatus(f.ctx, uuid.MustParse(req.Items[0].ID), UpdateStatusRequest{Status: "done"}, f.admin)
	assert.ErrorIs(t, err, ErrValidation)
}

type failingRecorder struct {
	HistoryRecorder
}

func (failingRecorder) Record(context.Context, *model.PanjarItem, Actor, workflow.Status, string) (*model.PanjarItemHistory, error) {
	return nil, errors.New("disk full")
}

func TestUpdateStatus_HistoryFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[0].ID

	f.history = failingRecorder{HistoryRecorder: f.history}
	f.rebuild()

	_, err := f.items.UpdateStatus(f.ctx, uuid.MustParse(itemID), UpdateStatusRequest{Status: "verified"}, f.verifier)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	item := f.item(t, itemID)
	assert.Equal(t, workflow.StatusPending, item.Status)
	assert.Equal(t, 1, item.Version)
	assert.Zero(t, f.historyCount(t, itemID))
}

func TestBulkUpdateStatus_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	first, second := req.Items[0].ID, req.Items[1].ID

	// the second entry is not allowed for a verifier on a pending item
	_, err := f.items.BulkUpdateStatus(f.ctx, BulkStatusRequest{Items: []BulkStatusItem{
		{ID: first, Status: "verified"},
		{ID: second, Status: "approved"},
	}}, f.verifier)
	require.ErrorIs(t, err, ErrUnauthorizedTransition)
	assert.Contains(t, err.Error(), "item 2")

	for _, id := range []string{first, second} {
		assert.Equal(t, workflow.StatusPending, f.item(t, id).Status)
		assert.Zero(t, f.historyCount(t, id))
	}
	assert.Empty(t, f.notifier.ofType(EventItemStatus))
}

type countingPanjarRepo struct {
	repository.PanjarRepository
	statusWrites int
}

func (c *countingPanjarRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status workflow.Status, approvedBy *uuid.UUID) error {
	c.statusWrites++
	return c.PanjarRepository.UpdateStatus(ctx, id, status, approvedBy)
}

func TestBulkUpdateStatus_RecomputesOncePerRequest(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	other := f.createRequest(t)

	counting := &countingPanjarRepo{PanjarRepository: f.panjarRepo}
	f.aggregator = NewStatusAggregator(counting, f.itemRepo)
	f.rebuild()

	items, err := f.items.BulkUpdateStatus(f.ctx, BulkStatusRequest{Items: []BulkStatusItem{
		{ID: req.Items[0].ID, Status: "verified"},
		{ID: req.Items[1].ID, Status: "verified", Note: "Sesuai"},
		{ID: other.Items[0].ID, Status: "verified"},
	}}, f.verifier)
	require.NoError(t, err)
	require.Len(t, items, 3)

	// req moves to verified, other stays pending (mixed): one write in total
	assert.Equal(t, 1, counting.statusWrites)
	assert.Equal(t, workflow.StatusVerified, f.request(t, req.ID).Status)
	assert.Equal(t, workflow.StatusPending, f.request(t, other.ID).Status)

	assert.Len(t, f.notifier.ofType(EventItemStatus), 3)
	assert.Len(t, f.notifier.ofType(EventRequestStatus), 2)

	history, err := f.items.GetHistory(f.ctx, uuid.MustParse(req.Items[1].ID))
	require.NoError(t, err)
	assert.Equal(t, "Sesuai", *history[0].Note)
}

func TestRecompute_Idempotent(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	f.setStatus(t, req.Items[0].ID, workflow.StatusVerified, f.verifier)
	f.setStatus(t, req.Items[1].ID, workflow.StatusVerified, f.verifier)

	counting := &countingPanjarRepo{PanjarRepository: f.panjarRepo}
	agg := NewStatusAggregator(counting, f.itemRepo)
	id := uuid.MustParse(req.ID)

	first, err := agg.Recompute(f.ctx, id, &f.verifier)
	require.NoError(t, err)
	second, err := agg.Recompute(f.ctx, id, &f.verifier)
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusVerified, first)
	assert.Equal(t, first, second)
	assert.Zero(t, counting.statusWrites)
}

func TestRecompute_NoItemsKeepsStatus(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	require.NoError(t, f.db.Model(&model.PanjarRequest{}).Where("id = ?", req.ID).Update("status", "verified").Error)
	require.NoError(t, f.itemRepo.DeleteByRequest(f.ctx, uuid.MustParse(req.ID)))

	status, err := f.aggregator.Recompute(f.ctx, uuid.MustParse(req.ID), nil)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusVerified, status)
}

func TestEndToEnd_RejectedBeatsApproved(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	assert.Equal(t, "250.00", req.TotalAmount)
	assert.Equal(t, "pending", req.Status)

	f.setStatus(t, req.Items[0].ID, workflow.StatusVerified, f.verifier)
	f.setStatus(t, req.Items[1].ID, workflow.StatusVerified, f.verifier)
	assert.Equal(t, workflow.StatusVerified, f.request(t, req.ID).Status)

	f.setStatus(t, req.Items[0].ID, workflow.StatusApproved, f.approver)
	assert.Equal(t, workflow.StatusVerified, f.request(t, req.ID).Status)

	f.setStatus(t, req.Items[1].ID, workflow.StatusRejected, f.approver)
	final := f.request(t, req.ID)
	assert.Equal(t, workflow.StatusRejected, final.Status)
	assert.Nil(t, final.ApprovedBy)
}

func TestFullApprovalStampsApprover(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)

	for _, it := range req.Items {
		f.setStatus(t, it.ID, workflow.StatusVerified, f.verifier)
	}
	for _, it := range req.Items {
		f.setStatus(t, it.ID, workflow.StatusApproved, f.approver)
	}

	final := f.request(t, req.ID)
	assert.Equal(t, workflow.StatusApproved, final.Status)
	require.NotNil(t, final.ApprovedBy)
	assert.Equal(t, f.approver.UserID, *final.ApprovedBy)
}

func TestUpdateItem_FieldsRecomputeTotal(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[1].ID

	qty, price := 4, "75.50"
	resp, err := f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{Quantity: &qty, Price: &price}, f.creator)
	require.NoError(t, err)
	assert.Equal(t, "302.00", resp.Total)

	assert.Equal(t, "502.00", f.request(t, req.ID).TotalAmount.StringFixed(2))
	assert.Zero(t, f.historyCount(t, itemID))
}

func TestUpdateItem_StatusGoesThroughAuthorizer(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[0].ID

	approved := "approved"
	name := "Kertas A4"
	_, err := f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{ItemName: &name, Status: &approved}, f.creator)
	require.ErrorIs(t, err, ErrUnauthorizedTransition)
	assert.Equal(t, "Kertas HVS", f.item(t, itemID).ItemName)

	revision := "revision"
	_, err = f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{ItemName: &name, Status: &revision}, f.verifier)
	require.ErrorIs(t, err, ErrForbidden, "verifier may not edit fields")

	resp, err := f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{Status: &revision}, f.verifier)
	require.NoError(t, err)
	assert.Equal(t, "revision", resp.Status)
	assert.Equal(t, "Kertas HVS", resp.ItemName)

	history, err := f.items.GetHistory(f.ctx, uuid.MustParse(itemID))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.EditedNote, *history[0].Note)
	assert.Equal(t, workflow.StatusRevision, f.request(t, req.ID).Status)
}

func TestUpdateItem_EditRights(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[0].ID
	price := "99999999"

	otherCreator := createActor(t, f.db, "kaur2", &f.otherUnit.ID, workflow.RoleNameCreator)
	_, err := f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{Price: &price}, otherCreator)
	assert.ErrorIs(t, err, ErrForbidden, "only the request's creator")

	f.setStatus(t, itemID, workflow.StatusVerified, f.verifier)
	f.setStatus(t, itemID, workflow.StatusApproved, f.approver)

	_, err = f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{Price: &price}, f.creator)
	assert.ErrorIs(t, err, ErrForbidden, "approved items are closed")
	_, err = f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{Price: &price}, f.verifier)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, "100.00", f.item(t, itemID).Price.StringFixed(2))
	assert.Equal(t, "250.00", f.request(t, req.ID).TotalAmount.StringFixed(2))

	resp, err := f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{Price: &price}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "199999998.00", resp.Total)
}

func TestUpdateItem_SameStatusRecordsHistory(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[0].ID

	pending := "pending"
	name := "Kertas A4"
	resp, err := f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{ItemName: &name, Status: &pending}, f.creator)
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, 1, resp.Version)

	history, err := f.items.GetHistory(f.ctx, uuid.MustParse(itemID))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "pending", history[0].Status)
	assert.Equal(t, workflow.EditedNote, *history[0].Note)
	assert.Equal(t, workflow.ReviewerCreator, history[0].ReviewerRole)

	_, err = f.items.UpdateItem(f.ctx, uuid.MustParse(itemID), UpdateItemRequest{Status: &pending}, f.verifier)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.EqualValues(t, 1, f.historyCount(t, itemID))
}

func TestCreateAndDeleteItem(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	requestID := uuid.MustParse(req.ID)

	created, err := f.items.CreateItem(f.ctx, requestID, ItemInput{ItemName: "Map", Quantity: 10, Price: "5"}, f.creator)
	require.NoError(t, err)
	assert.Equal(t, 3, created.LineNo)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "300.00", f.request(t, req.ID).TotalAmount.StringFixed(2))

	f.setStatus(t, req.Items[0].ID, workflow.StatusVerified, f.verifier)
	err = f.items.DeleteItem(f.ctx, uuid.MustParse(req.Items[0].ID), f.creator)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.items.DeleteItem(f.ctx, uuid.MustParse(created.ID), f.creator))
	assert.Equal(t, "250.00", f.request(t, req.ID).TotalAmount.StringFixed(2))

	_, err = f.items.GetItem(f.ctx, uuid.MustParse(created.ID))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllowedTransitions(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := uuid.MustParse(req.Items[0].ID)

	targets, err := f.items.AllowedTransitions(f.ctx, itemID, f.verifier)
	require.NoError(t, err)
	assert.Equal(t, []string{"verified", "rejected", "revision"}, targets)

	targets, err = f.items.AllowedTransitions(f.ctx, itemID, f.approver)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestTimelineIsChronological(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest(t)
	itemID := req.Items[0].ID

	f.setStatus(t, itemID, workflow.StatusRevision, f.verifier)
	f.setStatus(t, itemID, workflow.StatusVerified, f.verifier)

	timeline, err := f.items.GetTimeline(f.ctx, uuid.MustParse(itemID))
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, "revision", timeline[0].Status)
	assert.Equal(t, "verified", timeline[1].Status)

	history, err := f.items.GetHistory(f.ctx, uuid.MustParse(itemID))
	require.NoError(t, err)
	assert.Equal(t, "verified", history[0].Status)
}
