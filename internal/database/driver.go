// Package database provides database initialization and connection
// management. It uses GORM with SQLite for embedded storage, behind a small
// driver abstraction so another relational database can slot in later.
package database

import "gorm.io/gorm"

// Driver defines the database driver interface
type Driver interface {
	// Name returns the driver name (e.g. "sqlite")
	Name() string

	// Open opens a database connection and returns a GORM dialector
	Open(dsn string) (gorm.Dialector, error)

	// PreMigrationConfig applies configuration that must precede migration
	// (connection pool, journal mode). Foreign keys stay off here so
	// migration cannot trip over orphan records.
	PreMigrationConfig(db *gorm.DB) error

	// PostMigrationConfig applies configuration after migration, such as
	// enabling foreign key constraints
	PostMigrationConfig(db *gorm.DB) error
}
