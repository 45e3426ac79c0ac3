package database

import (
	"testing"

	"gorm.io/gorm"

	"github.com/jcastel/authbase/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestMigrateCreatesUserSchema(t *testing.T) {
	db := openTestDB(t)

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	if !db.Migrator().HasTable(&models.User{}) {
		t.Fatal("expected users table to exist")
	}
}

func TestEmailUniquenessEnforcedByStore(t *testing.T) {
	db := openTestDB(t)

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	first := models.User{Email: "dupe@example.com", Name: "First", Password: "hash"}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("create first user: %v", err)
	}

	second := models.User{Email: "dupe@example.com", Name: "Second", Password: "hash"}
	if err := db.Create(&second).Error; err == nil {
		t.Fatal("expected unique index on email to reject duplicate insert")
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("obtain sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
