// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g. "001_appointment_requests.sql") and are read from an fs.FS, which is
// normally the embedded migrations directory of the sqlite package. Applied
// versions and their checksums are tracked in the schema_migrations table.
//
//	manager := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), fsys, "migrations", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
