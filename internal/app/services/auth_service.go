package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/auth"
	"github.com/yigit/rosterhub/internal/pkg/session"
)

// SessionStore keeps server-side sessions. Implemented by session.Store.
type SessionStore interface {
	Create(ctx context.Context, studentID, username string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
}

// LoginResult is a fresh session and the token that carries it.
type LoginResult struct {
	Token     string
	ExpiresIn int
	Session   *session.Session
	Student   *models.StudentProfile
}

// AuthService handles operator login, logout and request authorization
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authorize(ctx context.Context, token string) (*session.Session, error)
}

type authServiceImpl struct {
	students   StudentService
	sessions   SessionStore
	jwtService *auth.JWTService
	hasher     *auth.PasswordHasher
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	students StudentService,
	sessions SessionStore,
	jwtService *auth.JWTService,
	hasher *auth.PasswordHasher,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		students:   students,
		sessions:   sessions,
		jwtService: jwtService,
		hasher:     hasher,
		logger:     logger.With().Str("service", "auth").Logger(),
	}
}

// Login checks the credentials and opens a session. Unknown usernames and
// wrong passwords give the same error.
func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperrors.ErrValidationFailed)
	}

	student, err := s.students.GetByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			s.logger.Info().Str("username", username).Msg("Login failed: unknown username")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Check(student.PasswordHash, password) {
		s.logger.Info().Str("username", username).Msg("Login failed: wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, student.ID, student.Username)
	if err != nil {
		return nil, sessionError(err)
	}

	token, expiresIn, err := s.jwtService.GenerateSessionToken(sess.ID, student.ID, student.Username)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("error generating session token: %w", err)
	}

	s.logger.Info().Str("studentId", student.ID).Str("sessionId", sess.ID).Msg("Operator logged in")
	return &LoginResult{Token: token, ExpiresIn: expiresIn, Session: sess, Student: student}, nil
}

// Logout revokes the session behind token. An already revoked or expired
// session is not an error.
func (s *authServiceImpl) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil
		}
		return apperrors.ErrUnauthorized
	}

	if err := s.sessions.Delete(ctx, claims.SessionID()); err != nil {
		return sessionError(err)
	}
	s.logger.Info().Str("studentId", claims.StudentID).Str("sessionId", claims.SessionID()).Msg("Operator logged out")
	return nil
}

// Authorize resolves a token to its live session. A valid signature is not
// enough: the session must still exist in the session store.
func (s *authServiceImpl) Authorize(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, apperrors.ErrUnauthorized
	}

	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, apperrors.ErrUnauthorized
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID())
	if err != nil {
		return nil, sessionError(err)
	}
	if sess.StudentID != claims.StudentID {
		s.logger.Warn().Str("sessionId", sess.ID).Msg("Token and session belong to different students")
		return nil, apperrors.ErrUnauthorized
	}
	return sess, nil
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return apperrors.ErrSessionExpired
	case errors.Is(err, session.ErrUnavailable):
		return fmt.Errorf("%w: session store", apperrors.ErrStorageUnavailable)
	default:
		return fmt.Errorf("session error: %w", err)
	}
}
