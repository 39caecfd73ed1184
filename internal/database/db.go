package database

import (
	"fmt"

	"panjar/internal/model"
	"panjar/internal/workflow"
	"panjar/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM and migrates the schema.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		logger.Log.WithError(err).Warn("failed to auto-migrate models")
	}
	if err := SeedRoles(db); err != nil {
		logger.Log.WithError(err).Warn("failed to seed workflow roles")
	}

	return db, nil
}

// Migrate creates or updates every table the application owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Unit{},
		&model.BudgetItem{},
		&model.Role{},
		&model.User{},
		&model.PanjarRequest{},
		&model.PanjarItem{},
		&model.PanjarItemHistory{},
		&model.AuditLog{},
	)
}

var systemRoles = []model.Role{
	{Name: workflow.RoleNameAdmin, Description: "Administrator sistem"},
	{Name: workflow.RoleNameApprover, Description: "Kepala sekolah, pemberi persetujuan akhir"},
	{Name: workflow.RoleNameVerifier, Description: "Wakil kepala sekolah, verifikator panjar"},
	{Name: workflow.RoleNameCreator, Description: "Kepala urusan, pengaju panjar"},
}

// SeedRoles makes sure the workflow roles exist.
func SeedRoles(db *gorm.DB) error {
	for _, r := range systemRoles {
		role := r
		role.IsSystem = true
		if err := db.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", role.Name, err)
		}
	}
	return nil
}
