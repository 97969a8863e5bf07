package database

import (
	"fmt"

	"github.com/coro-biz/journey-coach/services/tokens"
	"github.com/coro-biz/journey-coach/services/users"
	"github.com/coro-biz/journey-coach/session"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrate applies all pending schema migrations in order. It runs once at
// startup, before the server accepts requests.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202508010001_create_users_and_email_tokens",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&users.User{}, &tokens.EmailToken{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("email_tokens", "users")
			},
		},
		{
			ID: "202508010002_create_user_sessions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&session.UserSession{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("user_sessions")
			},
		},
	}
}
