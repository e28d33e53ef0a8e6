package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/keystone/internal/config"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want []string
	}{
		{
			name: "default local",
			cfg:  config.DatabaseConfig{Host: "127.0.0.1", Port: 3306, User: "root", Name: "keystone"},
			want: []string{"root@tcp(127.0.0.1:3306)/keystone", "parseTime=true"},
		},
		{
			name: "custom host with password",
			cfg:  config.DatabaseConfig{Host: "10.0.0.5", Port: 3307, User: "planner", Password: "s3cret", Name: "ks_prod"},
			want: []string{"planner:s3cret@tcp(10.0.0.5:3307)/ks_prod"},
		},
		{
			name: "no database selected",
			cfg:  config.DatabaseConfig{Host: "db.internal", Port: 3306, User: "root"},
			want: []string{"root@tcp(db.internal:3306)/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.cfg)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("DSN() = %q, want to contain %q", got, w)
				}
			}
		})
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("error = %q, want unsupported driver", err.Error())
	}
}

func TestConnect_SQLiteMemoryAndMigrate(t *testing.T) {
	gdb, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, table := range []string{"tasks", "task_deps", "milestones", "milestone_tasks", "milestone_comments",
		"budgets", "cost_entries", "resource_allocations", "user_capacities", "earned_value_metrics", "scheduling_alerts"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("table %s missing after AutoMigrate", table)
		}
	}
}

func TestConnect_SQLiteCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "keystone.db")
	gdb, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sqlite file not created: %v", err)
	}

	sqlDB, _ := gdb.DB()
	sqlDB.Close()

	if err := RemoveSQLite(path); err != nil {
		t.Fatalf("RemoveSQLite: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("sqlite file still present after RemoveSQLite")
	}
}

func TestRemoveSQLite_MissingAndMemory(t *testing.T) {
	if err := RemoveSQLite(filepath.Join(t.TempDir(), "absent.db")); err != nil {
		t.Errorf("RemoveSQLite on missing file: %v", err)
	}
	if err := RemoveSQLite(":memory:"); err != nil {
		t.Errorf("RemoveSQLite on memory DSN: %v", err)
	}
}

func TestAllModels_Count(t *testing.T) {
	if got := len(AllModels()); got != 10 {
		t.Errorf("len(AllModels()) = %d, want 10", got)
	}
}
