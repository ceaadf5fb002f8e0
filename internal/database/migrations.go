package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// RunMigrations executes all SQL migration files for the active dialect.
// Migration files live under migrationsPath/<dialect subdir>/ and run in
// lexical order; completed files are tracked in the migrations table.
func (db *DB) RunMigrations(ctx context.Context, migrationsPath string) error {
	// Create migrations table if it doesn't exist
	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get all migration files for this dialect
	pattern := filepath.Join(migrationsPath, db.Dialect.MigrationsSubdir(), "*.sql")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	// Sort files to ensure they run in order
	sort.Strings(files)

	// Run each migration
	for _, file := range files {
		filename := filepath.Base(file)

		// Check if migration has already been run
		hasRun, err := db.hasMigrationRun(ctx, filename)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}

		if hasRun {
			continue
		}

		// Read migration file
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		// Execute and record migration
		if err := db.applyMigration(ctx, filename, string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", filename, err)
		}
	}

	return nil
}

// applyMigration executes a migration file and records it in one transaction,
// so a file that fails partway through is rolled back rather than left half
// applied and unrecorded.
func (db *DB) applyMigration(ctx context.Context, filename, statements string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ctx, statements); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "INSERT INTO migrations (filename) VALUES (?)", filename); err != nil {
		return err
	}

	return tx.Commit()
}

// createMigrationsTable creates the table to track completed migrations
func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.Exec(ctx, db.Dialect.CreateMigrationsTableQuery())
	return err
}

// hasMigrationRun checks if a migration has already been executed
func (db *DB) hasMigrationRun(ctx context.Context, filename string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM migrations WHERE filename = ?"
	err := db.QueryRow(ctx, query, filename).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
