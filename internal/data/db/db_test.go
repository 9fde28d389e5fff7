package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

func TestNewService_SQLiteMigratesItemTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessons.db")
	svc, err := NewService(logger.NewNop(), Options{Driver: "SQLite", SQLitePath: path})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()

	if svc.Driver() != DriverSQLite {
		t.Fatalf("driver: want=%s got=%s", DriverSQLite, svc.Driver())
	}
	if !svc.DB().Migrator().HasTable(&kv.ItemRow{}) {
		t.Fatalf("expected kv_item table")
	}

	gw := kv.NewGormGateway(svc.DB(), logger.NewNop(), kv.Options{})
	item := kv.Item{Key: kv.Key{PK: "p", SK: "s"}, Attrs: map[string]any{"a": "b"}}
	if err := gw.PutItem(context.Background(), item, nil); err != nil {
		t.Fatalf("PutItem: %v", err)
	}
}

func TestNewService_RejectsUnknownDriver(t *testing.T) {
	if _, err := NewService(logger.NewNop(), Options{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOptions_PostgresDSN(t *testing.T) {
	o := Options{PostgresHost: "h", PostgresPort: "5432", PostgresUser: "u", PostgresPassword: "p", PostgresName: "n"}
	want := "postgres://u:p@h:5432/n?sslmode=disable"
	if got := o.PostgresDSN(); got != want {
		t.Fatalf("dsn: want=%s got=%s", want, got)
	}
	o.DSN = " postgres://x "
	if got := o.PostgresDSN(); got != "postgres://x" {
		t.Fatalf("explicit dsn: got=%s", got)
	}
}
