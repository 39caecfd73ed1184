package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"panjar/internal/database"
	"panjar/internal/model"
	"panjar/internal/repository"
	"panjar/internal/workflow"
	"panjar/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Silence()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedRoles(db))
	return db
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Publish(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) ofType(eventType string) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, e := range n.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	db  *gorm.DB
	ctx context.Context

	unit      model.Unit
	otherUnit model.Unit
	budget    model.BudgetItem

	creator  Actor
	verifier Actor
	approver Actor
	admin    Actor

	panjarRepo  repository.PanjarRepository
	itemRepo    repository.PanjarItemRepository
	historyRepo repository.HistoryRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager

	history    HistoryRecorder
	aggregator StatusAggregator
	notifier   *recordingNotifier

	panjar PanjarService
	items  ItemService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{db: db, ctx: context.Background(), notifier: &recordingNotifier{}}

	f.unit = model.Unit{Code: "KUR", Name: "Kurikulum"}
	f.otherUnit = model.Unit{Code: "SAR", Name: "Sarana Prasarana"}
	require.NoError(t, db.Create(&f.unit).Error)
	require.NoError(t, db.Create(&f.otherUnit).Error)

	f.budget = model.BudgetItem{UnitID: f.unit.ID, Name: "ATK Semester Ganjil", Year: 2026, Quarter: 3, Amount: decimal.NewFromInt(5000000)}
	require.NoError(t, db.Create(&f.budget).Error)

	f.creator = createActor(t, db, "kaur", &f.unit.ID, workflow.RoleNameCreator)
	f.verifier = createActor(t, db, "wakasek", &f.unit.ID, workflow.RoleNameVerifier)
	f.approver = createActor(t, db, "kepsek", nil, workflow.RoleNameApprover)
	f.admin = createActor(t, db, "admin", nil, workflow.RoleNameAdmin)

	f.panjarRepo = repository.NewPanjarRepository(db)
	f.itemRepo = repository.NewPanjarItemRepository(db)
	f.historyRepo = repository.NewHistoryRepository(db)
	f.auditRepo = repository.NewAuditRepository(db)
	f.txManager = repository.NewTransactionManager(db)
	f.history = NewHistoryRecorder(f.historyRepo, f.itemRepo)
	f.aggregator = NewStatusAggregator(f.panjarRepo, f.itemRepo)
	f.rebuild()
	return f
}

// rebuild wires the services from the current collaborators, so tests can swap one.
func (f *fixture) rebuild() {
	f.panjar = NewPanjarService(f.panjarRepo, f.itemRepo, repository.NewUnitRepository(f.db), f.auditRepo,
		f.history, f.aggregator, f.txManager, f.notifier)
	f.items = NewItemService(f.itemRepo, f.panjarRepo, f.auditRepo, f.history, f.aggregator, f.txManager, f.notifier)
}

func createActor(t *testing.T, db *gorm.DB, username string, unitID *uuid.UUID, roleNames ...string) Actor {
	t.Helper()

	var roles []model.Role
	require.NoError(t, db.Where("name IN ?", roleNames).Find(&roles).Error)
	require.Len(t, roles, len(roleNames))

	user := model.User{
		Name:     username,
		Username: username,
		Email:    username + "@sekolah.test",
		Password: "x",
		UnitID:   unitID,
		Roles:    roles,
	}
	require.NoError(t, db.Omit("Roles.*").Create(&user).Error)
	return NewActor(user.ID, unitID, roleNames...)
}

// createRequest makes the two item request used throughout: 2 x 100 and 1 x 50.
func (f *fixture) createRequest(t *testing.T) PanjarResponse {
	t.Helper()
	resp, err := f.panjar.CreateWithItems(f.ctx, CreatePanjarRequest{
		UnitID:       f.unit.ID.String(),
		BudgetItemID: f.budget.ID.String(),
		RequestDate:  "2026-10-01",
		Description:  "Pembelian ATK",
		Items: []ItemInput{
			{ItemName: "Kertas HVS", Quantity: 2, Unit: "rim", Price: "100"},
			{ItemName: "Spidol", Quantity: 1, Unit: "pcs", Price: "50"},
		},
	}, f.creator)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	return resp
}

func (f *fixture) item(t *testing.T, id string) model.PanjarItem {
	t.Helper()
	var item model.PanjarItem
	require.NoError(t, f.db.First(&item, "id = ?", id).Error)
	return item
}

func (f *fixture) request(t *testing.T, id string) model.PanjarRequest {
	t.Helper()
	var req model.PanjarRequest
	require.NoError(t, f.db.First(&req, "id = ?", id).Error)
	return req
}

func (f *fixture) historyCount(t *testing.T, itemID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.PanjarItemHistory{}).Where("panjar_item_id = ?", itemID).Count(&n).Error)
	return n
}

func (f *fixture) setStatus(t *testing.T, itemID string, status workflow.Status, actor Actor) ItemResponse {
	t.Helper()
	resp, err := f.items.UpdateStatus(f.ctx, uuid.MustParse(itemID), UpdateStatusRequest{Status: string(status)}, actor)
	require.NoError(t, err)
	return resp
}
