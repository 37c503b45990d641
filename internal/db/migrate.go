package db

import (
	"errors"
	"fmt"

	"github.com/mwdev22/webpanel/internal/models"
	"gorm.io/gorm"
)

// bootstrapPasswordHash is the PBKDF2 hash of the preset password "admin"
// salted with the bootstrap account's name and id. Changing the id or name of
// the account invalidates the preset password.
const bootstrapPasswordHash = "0a37b33d81e4e7f80ea89dd32e8ee12a939c154e6767cd035c467f8de1eadedc"

// Migrate runs schema migrations for the current dialect and seeds the
// bootstrap administrator.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		if errMigrate := migrateSQLite(conn); errMigrate != nil {
			return errMigrate
		}
	case DialectPostgres, "":
		if errMigrate := migratePostgres(conn); errMigrate != nil {
			return errMigrate
		}
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
	return ensureBootstrapUser(conn)
}

// migrateSQLite applies the schema with foreign keys disabled for the
// duration of the sync, then re-enables them.
func migrateSQLite(conn *gorm.DB) error {
	if errDisable := conn.Exec("PRAGMA foreign_keys=OFF").Error; errDisable != nil {
		return fmt.Errorf("db: disable foreign keys: %w", errDisable)
	}
	defer func() {
		_ = conn.Exec("PRAGMA foreign_keys=ON").Error
	}()

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Session{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return applyIndexes(conn)
}

// migratePostgres applies the schema and PostgreSQL indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Session{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return applyIndexes(conn)
}

// applyIndexes creates the lookup indexes shared by both dialects.
func applyIndexes(conn *gorm.DB) error {
	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_sessions_expires_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_sessions_expires_at
				ON sessions (expires_at)
			`,
		},
		{
			name: "idx_sessions_user_id_expires_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_sessions_user_id_expires_at
				ON sessions (user_id, expires_at)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}
	return nil
}

// ensureBootstrapUser seeds the fixed administrator account when absent.
func ensureBootstrapUser(conn *gorm.DB) error {
	var existing models.User
	errFind := conn.Where("name = ?", "admin").First(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query bootstrap user: %w", errFind)
	}

	user := models.User{
		ID:           models.BootstrapUserID,
		Name:         "admin",
		PasswordHash: bootstrapPasswordHash,
		Roles:        models.EncodeRoles([]models.Role{models.RoleAdmin}),
		Disabled:     false,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		return fmt.Errorf("db: create bootstrap user: %w", errCreate)
	}
	return nil
}
