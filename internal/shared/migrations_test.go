package shared

import (
	"testing"
)

func TestParseMigrationName(t *testing.T) {
	tc := []struct {
		file      string
		version   int
		name      string
		direction string
		ok        bool
	}{
		{"0001_job_history_up.sql", 1, "job_history", "up", true},
		{"0002_upscale_tasks_down.sql", 2, "upscale_tasks", "down", true},
		{"README.md", 0, "", "", false},
		{"abc_thing_up.sql", 0, "", "", false},
		{"0003_sideways.sql", 0, "", "", false},
	}
	for _, tt := range tc {
		t.Run(tt.file, func(t *testing.T) {
			v, n, d, ok := parseMigrationName(tt.file)
			if ok != tt.ok || v != tt.version || n != tt.name || d != tt.direction {
				t.Errorf("parseMigrationName(%q) = (%d, %q, %q, %v), want (%d, %q, %q, %v)",
					tt.file, v, n, d, ok, tt.version, tt.name, tt.direction, tt.ok)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	script := "-- header\nCREATE TABLE a (x INT); -- trailing\n\nCREATE INDEX i ON a(x);\n"
	stmts := splitStatements(script)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (x INT)" {
		t.Errorf("unexpected first statement %q", stmts[0])
	}
}

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"jobs", "upscale_tasks", "upscale_task_logs"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		applied, err := AppliedMigrations(db)
		if err != nil {
			t.Fatalf("AppliedMigrations() error = %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		after, err := AppliedMigrations(db)
		if err != nil {
			t.Fatalf("AppliedMigrations() error = %v", err)
		}
		if len(after) != len(applied)-1 {
			t.Errorf("expected one fewer migration after rollback, got %d (was %d)", len(after), len(applied))
		}
		if _, err := db.Exec("SELECT 1 FROM upscale_tasks LIMIT 1"); err == nil {
			t.Error("upscale_tasks should be dropped by rollback")
		}
	})

	t.Run("Rollback With Nothing Applied", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := createMigrationsTable(db); err != nil {
			t.Fatalf("createMigrationsTable() error = %v", err)
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing to rollback")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		applied, err := AppliedMigrations(db)
		if err != nil {
			t.Fatalf("AppliedMigrations() error = %v", err)
		}
		migrations, _ := loadMigrations()
		if len(applied) != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), len(applied))
		}
	})
}
