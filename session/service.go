package session

import (
	"time"

	"github.com/mileusna/useragent"
	"gorm.io/gorm"
)

// Service records which devices hold live sessions for a user.
type Service struct {
	db      *gorm.DB
	manager *Manager
}

func NewSessionService(db *gorm.DB, manager *Manager) *Service {
	return &Service{db: db, manager: manager}
}

func (s *Service) TrackSession(userID uint, token, ipAddress, userAgent string, expiresAt time.Time) error {
	record := UserSession{
		UserID:    userID,
		Token:     token,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: time.Now(),
		LastUsed:  time.Now(),
		ExpiresAt: expiresAt,
	}
	return s.db.Create(&record).Error
}

// UserSessions lists the user's live sessions, most recently used first,
// with the caller's own session flagged.
func (s *Service) UserSessions(userID uint, currentToken string) ([]UserSession, error) {
	var sessions []UserSession
	err := s.db.Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("last_used DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		sessions[i].Current = sessions[i].Token == currentToken
		sessions[i].Browser = browserInfo(sessions[i].UserAgent)
	}
	return sessions, nil
}

func (s *Service) TouchSession(token string) error {
	return s.db.Model(&UserSession{}).
		Where("token = ?", token).
		Update("last_used", time.Now()).Error
}

func (s *Service) RemoveSessionByToken(token string) error {
	return s.db.Where("token = ?", token).Delete(&UserSession{}).Error
}

func (s *Service) CleanupExpiredSessions() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&UserSession{}).Error
}

func browserInfo(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Browser"
	}

	ua := useragent.Parse(userAgentString)
	if ua.Name == "" {
		return "Unknown Browser"
	}
	if ua.Version != "" {
		return ua.Name + " " + ua.Version
	}
	return ua.Name
}
