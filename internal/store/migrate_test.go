package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrations_FreshDB(t *testing.T) {
	db := testDB(t)
	if err := RunMigrations(db, testLogger()); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		t.Fatal(err)
	}
	if version != schemaVersion {
		t.Errorf("expected schema version %d, got %d", schemaVersion, version)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := testDB(t)
	logger := testLogger()

	if err := RunMigrations(db, logger); err != nil {
		t.Fatalf("first migration failed: %v", err)
	}
	if err := RunMigrations(db, logger); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestRunMigrations_UpgradeWithExistingColumn(t *testing.T) {
	db := testDB(t)
	// A database where the checksum column exists but v2 was never recorded.
	if _, err := db.Exec(migrations[0].SQL); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`ALTER TABLE snapshots ADD COLUMN checksum TEXT NOT NULL DEFAULT ''`); err != nil {
		t.Fatal(err)
	}

	if err := RunMigrations(db, testLogger()); err != nil {
		t.Fatalf("upgrade failed: %v", err)
	}
	version, _ := GetSchemaVersion(db)
	if version != schemaVersion {
		t.Errorf("expected schema version %d, got %d", schemaVersion, version)
	}
}

func TestRunMigrations_CreatesExpectedTables(t *testing.T) {
	db := testDB(t)
	if err := RunMigrations(db, testLogger()); err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"snapshots", "records", "schema_version"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestGetSchemaVersion_NoTable(t *testing.T) {
	db := testDB(t)
	version, err := GetSchemaVersion(db)
	if err != nil {
		t.Fatal(err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}
}

func TestSplitSQL(t *testing.T) {
	got := splitSQL("CREATE TABLE a (x);\n\n  CREATE INDEX i ON a(x);  \n")
	if len(got) != 2 || got[0] != "CREATE TABLE a (x)" || got[1] != "CREATE INDEX i ON a(x)" {
		t.Errorf("unexpected split: %#v", got)
	}
}
