package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/signdrop/internal/config"
	"github.com/signdrop/internal/utils"
	"go.uber.org/zap"
)

// SessionService authenticates the operator and tracks bearer session
// tokens in process. The signer surface never touches sessions; its
// only credential is the signing token itself.
type SessionService struct {
	cfg    *config.Configuration
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]time.Time // token -> expiry
}

func NewSessionService(cfg *config.Configuration, logger *zap.Logger) *SessionService {
	return &SessionService{
		cfg:      cfg,
		logger:   logger.With(zap.String("service", "session_service")),
		sessions: make(map[string]time.Time),
	}
}

// Login verifies the operator password and issues a session token.
func (s *SessionService) Login(password string) (string, bool) {
	if !utils.VerifyPassword(s.cfg.Security.OperatorPasswordHash, password) {
		return "", false
	}
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = time.Now().Add(s.cfg.Security.SessionTimeout)
	s.mu.Unlock()
	s.logger.Info("Operator session created")
	return token, true
}

func (s *SessionService) IsValid(token string) bool {
	s.mu.RLock()
	expiry, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		s.Revoke(token)
		return false
	}
	return true
}

func (s *SessionService) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}
