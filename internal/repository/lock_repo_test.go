package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"building_automation/internal/models"
	"building_automation/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLockSQLite_IsLocked_NoRowMeansUnlocked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	repo := repository.NewLockSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT locked FROM device_locks")).
		WithArgs("dev1").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}))

	locked, err := repo.IsLocked(context.Background(), "dev1")
	if err != nil {
		t.Fatalf("IsLocked() error = %v", err)
	}
	if locked {
		t.Fatalf("device with no lock row must read as unlocked")
	}
}

func TestLockSQLite_IsLocked_ReadsStoredFlag(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	repo := repository.NewLockSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT locked FROM device_locks")).
		WithArgs("dev1").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(true))

	locked, err := repo.IsLocked(context.Background(), "dev1")
	if err != nil {
		t.Fatalf("IsLocked() error = %v", err)
	}
	if !locked {
		t.Fatalf("expected locked = true")
	}
}

func TestLockSQLite_IsLocked_QueryErrorIsPropagated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	repo := repository.NewLockSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT locked FROM device_locks")).
		WithArgs("dev1").
		WillReturnError(errors.New("db down"))

	if _, err := repo.IsLocked(context.Background(), "dev1"); err == nil {
		t.Fatalf("IsLocked() expected error, got nil")
	}
}

func TestLockSQLite_Set_UpsertsWithUTCTime(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	repo := repository.NewLockSQLite(db)

	locTokyo, _ := time.LoadLocation("Asia/Tokyo")
	updated := time.Date(2026, 8, 24, 12, 0, 0, 0, locTokyo)
	expectedUTC := updated.UTC()

	isExactUTC := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		return ok && tm.Equal(expectedUTC) && tm.Location() == time.UTC
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_locks")).
		WithArgs("dev1", true, "lockdown", isExactUTC).
		WillReturnResult(sqlmock.NewResult(1, 1))

	lock := models.DeviceLock{DeviceID: "dev1", Locked: true, Mode: "lockdown", UpdatedAt: updated}
	if err := repo.Set(context.Background(), lock); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
