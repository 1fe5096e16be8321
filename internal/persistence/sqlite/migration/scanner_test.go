package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestScan(t *testing.T) {
	t.Parallel()

	t.Run("orders migrations numerically and extracts descriptions", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"migrations/10_add_index.sql":    {Data: []byte("CREATE INDEX idx ON t(a);")},
			"migrations/2_create_table.sql":   {Data: []byte("-- Description: create t\nCREATE TABLE t (a TEXT);")},
			"migrations/README.md":            {Data: []byte("ignored")},
			"migrations/nested/3_skipped.sql": {Data: []byte("SELECT 1;")},
		}

		migrations, err := Scan(fsys, "migrations")
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if len(migrations) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(migrations))
		}
		if migrations[0].Version != "2" || migrations[1].Version != "10" {
			t.Fatalf("expected numeric ordering, got %s then %s", migrations[0].Version, migrations[1].Version)
		}
		if migrations[0].Description != "create t" {
			t.Fatalf("expected description from content, got %q", migrations[0].Description)
		}
		if migrations[1].Description != "add index" {
			t.Fatalf("expected description from filename, got %q", migrations[1].Description)
		}
		if migrations[0].Checksum == "" || migrations[0].Checksum == migrations[1].Checksum {
			t.Fatalf("expected distinct checksums")
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"m/001_a.sql": {Data: []byte("SELECT 1;")},
			"m/1_b.sql":   {Data: []byte("SELECT 2;")},
		}
		if _, err := Scan(fsys, "m"); !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion for numerically equal versions, got %v", err)
		}
	})

	t.Run("rejects malformed names and empty files", func(t *testing.T) {
		t.Parallel()

		if _, err := Scan(fstest.MapFS{"m/create.sql": {Data: []byte("SELECT 1;")}}, "m"); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile for bad name, got %v", err)
		}
		if _, err := Scan(fstest.MapFS{"m/001_empty.sql": {Data: []byte("-- nothing here\n")}}, "m"); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile for empty file, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	statements := splitStatements("-- header\nCREATE TABLE a (x INT);\n\n-- comment only;\nINSERT INTO a VALUES (1);\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[1] != "INSERT INTO a VALUES (1)" {
		t.Fatalf("unexpected statement %q", statements[1])
	}
}
