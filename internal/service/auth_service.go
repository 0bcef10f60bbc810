package service

import (
	"context"
	"time"

	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// AuthService coordinates admin and worker login flows.
type AuthService struct {
	workers  repository.WorkerStore
	tokenMgr *auth.TokenManager
	adminKey string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, workers repository.WorkerStore) *AuthService {
	return &AuthService{
		workers:  workers,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		adminKey: cfg.Auth.AdminAccessKey,
	}
}

// LoginAdmin authenticates the administrator by access key.
func (s *AuthService) LoginAdmin(_ context.Context, accessKey string) (string, time.Time, error) {
	if s.adminKey == "" || !auth.ConstantTimeEquals(accessKey, s.adminKey) {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid access key")
	}
	return s.tokenMgr.GenerateToken("admin", domain.SubjectTypeAdmin)
}

// LoginWorker authenticates a worker against the directory worksheet.
// Legacy plaintext and pbkdf2 credentials are both accepted.
func (s *AuthService) LoginWorker(ctx context.Context, name, password string) (*domain.Worker, string, time.Time, error) {
	worker, err := s.workers.GetByName(ctx, name)
	if err != nil {
		if apperrors.IsCode(err, "NOT_FOUND") {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !auth.VerifyCredential(password, worker.Credential) {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(worker.Name, domain.SubjectTypeWorker)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return worker, token, exp, nil
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
