package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		for _, schema := range []Schema{ClientSchema, ServerSchema} {
			migrations, err := loadMigrations(schema)
			if err != nil {
				t.Fatalf("failed to load %s migrations: %v", schema, err)
			}

			if len(migrations) == 0 {
				t.Fatalf("expected at least one %s migration", schema)
			}

			for i := 1; i < len(migrations); i++ {
				if migrations[i].Version <= migrations[i-1].Version {
					t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
				}
			}

			for _, m := range migrations {
				if m.Name == "" {
					t.Errorf("%s migration %d missing name", schema, m.Version)
				}
				if m.Up == "" || m.Down == "" {
					t.Errorf("%s migration %d missing up or down SQL", schema, m.Version)
				}
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

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE schema = ?", "client").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		for _, table := range []string{"cached_bookings", "archived_bookings", "preferences"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		var newCount int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE schema = ?", "client").Scan(&newCount); err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount != count-1 {
			t.Errorf("expected migration count %d after rollback, got %d", count-1, newCount)
		}

		if _, err := db.Exec("SELECT 1 FROM preferences LIMIT 1"); err == nil {
			t.Error("preferences table should be dropped by rollback")
		}
	})

	t.Run("Schemas are tracked separately", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := Migrate(db, ServerSchema); err != nil {
			t.Fatalf("failed to run server migrations: %v", err)
		}

		states, err := Status(db, ClientSchema)
		if err != nil {
			t.Fatalf("failed to get status: %v", err)
		}
		for _, s := range states {
			if s.Applied {
				t.Errorf("client migration %d should not be applied", s.Version)
			}
		}

		states, err = Status(db, ServerSchema)
		if err != nil {
			t.Fatalf("failed to get status: %v", err)
		}
		for _, s := range states {
			if !s.Applied {
				t.Errorf("server migration %d should be applied", s.Version)
			}
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

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations(ClientSchema)
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("Rollback with nothing applied", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing to rollback")
		}
	})
}
