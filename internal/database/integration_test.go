package database

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"wordbuilder/internal/config"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.Config{
		DatabaseType: "sqlite",
		DatabasePath: filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := Initialize(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations", zap.NewNop()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestMigrationsCreateSchema(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)

	tables := []string{"sessions", "progress_records", "word_attempts"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	_, err = tx.Exec("INSERT INTO sessions (session_id, display_name, created_at, last_active_at) VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		"integration-session-1", "Test")
	if err != nil {
		tx.Rollback()
		t.Fatalf("Failed to insert in transaction: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sessions WHERE session_id = ?", "integration-session-1").Scan(&count); err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 session, got %d", count)
	}

	tx2, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin second transaction: %v", err)
	}
	_, err = tx2.Exec("INSERT INTO sessions (session_id, display_name, created_at, last_active_at) VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		"integration-session-2", "Test")
	if err != nil {
		tx2.Rollback()
		t.Fatalf("Failed to insert in second transaction: %v", err)
	}
	if err := tx2.Rollback(); err != nil {
		t.Fatalf("Failed to rollback transaction: %v", err)
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM sessions WHERE session_id = ?", "integration-session-2").Scan(&count); err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 sessions after rollback, got %d", count)
	}
}

func TestProgressUpsertAccumulates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)

	_, err := db.Exec("INSERT INTO sessions (session_id, display_name, created_at, last_active_at) VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		"integration-upsert", "Test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	upsert := db.Dialect.UpsertProgressQuery(true)
	ts := "2026-01-01T00:00:00Z"
	for i := 0; i < 2; i++ {
		// words, total, correct, time all 1; current streak 3, best candidate 3
		_, err = db.Exec(upsert, "integration-upsert", 1, 1, 1, 1, 3, 3, 1, ts, ts)
		if err != nil {
			t.Fatalf("Upsert %d failed: %v", i, err)
		}
	}

	var total, best int
	err = db.QueryRow("SELECT total_attempts, best_streak FROM progress_records WHERE session_id = ? AND level = ?",
		"integration-upsert", 1).Scan(&total, &best)
	if err != nil {
		t.Fatalf("Failed to read progress row: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected counters to accumulate to 2, got %d", total)
	}
	if best != 3 {
		t.Errorf("Expected best streak 3, got %d", best)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)

	_, err := db.Exec("INSERT INTO sessions (session_id, display_name, created_at, last_active_at) VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		"integration-cascade", "Test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	_, err = db.Exec(db.Dialect.UpsertProgressQuery(false),
		"integration-cascade", 1, 1, 1, 1, 0, 1, 1, "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("Failed to create progress row: %v", err)
	}

	if _, err := db.Exec("DELETE FROM sessions WHERE session_id = ?", "integration-cascade"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM progress_records WHERE session_id = ?", "integration-cascade").Scan(&count); err != nil {
		t.Fatalf("Failed to count progress rows: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected progress rows to cascade on delete, got %d", count)
	}
}
