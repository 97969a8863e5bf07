package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coro-biz/journey-coach/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already registered")
	ErrInvalidPhase = errors.New("unknown phase")
)

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{db: db, logger: logger}
}

// NormalizeEmail lowercases and trims an email address. Every lookup and
// write goes through this so the unique index on users.email is the single
// source of truth for identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) FindByEmail(email string) (*User, error) {
	var user User
	err := s.db.Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

func (s *Service) FindByID(id uint) (*User, error) {
	var user User
	err := s.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// Create inserts a new user. A concurrent insert for the same normalized
// email loses against the unique index and surfaces as ErrEmailTaken.
func (s *Service) Create(email, passwordHash string) (*User, error) {
	user := &User{
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		IsVerified:   false,
		Phase:        DefaultPhase,
	}

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", zap.Uint("user_id", user.ID))
	return user, nil
}

// GetOrCreate returns the user for email, inserting a credential-less row if
// none exists yet. Token flows use this so a reset request for an unknown
// address still has a row to hang the token on.
func (s *Service) GetOrCreate(email string) (*User, error) {
	user, err := s.FindByEmail(email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user = &User{
		Email:      NormalizeEmail(email),
		IsVerified: false,
		Phase:      DefaultPhase,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if user.ID == 0 {
		// lost the race; the winner's row is what we want
		return s.FindByEmail(email)
	}
	return user, nil
}

func (s *Service) SetPassword(userID uint, passwordHash string) error {
	result := s.db.Model(&User{}).Where("id = ?", userID).Update("password_hash", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkVerified(userID uint) error {
	result := s.db.Model(&User{}).Where("id = ?", userID).Update("is_verified", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark user verified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPhase moves the user to a new journey phase. Unknown phases are
// rejected without touching the row.
func (s *Service) SetPhase(userID uint, phase Phase) (*User, error) {
	if !phase.Valid() {
		return nil, ErrInvalidPhase
	}

	result := s.db.Model(&User{}).Where("id = ?", userID).Update("phase", phase)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update phase: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	s.logger.Info("phase updated", zap.Uint("user_id", userID), zap.String("phase", string(phase)))
	return s.FindByID(userID)
}

// isUniqueViolation catches driver-specific unique constraint errors that
// gorm does not translate for every dialect.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}
