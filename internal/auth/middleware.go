package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	Worker      *domain.Worker
}

// ClientKey identifies the principal for per-client state such as the
// last-seen collection signature.
func (p *Principal) ClientKey() string {
	if p.SubjectType == domain.SubjectTypeWorker && p.Worker != nil {
		return "worker:" + p.Worker.Name
	}
	return "admin"
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens  *TokenManager
	workers repository.WorkerStore
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, workers repository.WorkerStore) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, workers: workers}
}

// Handle extracts the bearer token and resolves the principal.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeAdmin:
		// the admin principal carries no directory record
	case domain.SubjectTypeWorker:
		worker, err := m.workers.GetByName(c.Context(), claims.SubjectID)
		if err != nil {
			if apperrors.IsCode(err, "NOT_FOUND") {
				return apperrors.NewUnauthorized("worker not found")
			}
			return apperrors.MapError(err)
		}
		principal.Worker = worker
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
