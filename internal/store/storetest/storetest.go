// Package storetest provides an in-memory sqlite Store for tests.
package storetest

import (
	"testing"
	"time"

	"github.com/zulandar/keystone/internal/db"
	"github.com/zulandar/keystone/internal/models"
	"github.com/zulandar/keystone/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens a fresh, migrated in-memory database.
func New(t testing.TB) *store.Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return store.New(gdb)
}

// Create inserts each record, failing the test on error.
func Create(t testing.TB, s *store.Store, records ...interface{}) {
	t.Helper()
	for _, r := range records {
		if err := s.DB().Create(r).Error; err != nil {
			t.Fatalf("create %T: %v", r, err)
		}
	}
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date returned as a pointer.
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

// Task builds a task with the given schedule. A zero start or end leaves the
// field unset.
func Task(id, projectID, name, status string, start, end time.Time) *models.Task {
	t := &models.Task{ID: id, ProjectID: projectID, Name: name, Status: status}
	if !start.IsZero() {
		t.StartDate = &start
	}
	if !end.IsZero() {
		t.EndDate = &end
	}
	return t
}
