package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/superio/interview-server-go/internal/audit"
	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/httputil"
	"github.com/superio/interview-server-go/internal/model"
	"github.com/superio/interview-server-go/internal/repository"
	"github.com/superio/interview-server-go/internal/token"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

func GetIdentity(ctx context.Context) *model.Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(*model.Identity); ok {
		return identity
	}
	return nil
}

func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

type AuthMiddleware struct {
	sessions   *token.SessionVerifier
	delegation *token.DelegationSigner
	users      repository.UserRepository
	companies  repository.CompanyRepository
}

func NewAuthMiddleware(
	sessions *token.SessionVerifier,
	delegation *token.DelegationSigner,
	users repository.UserRepository,
	companies repository.CompanyRepository,
) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:   sessions,
		delegation: delegation,
		users:      users,
		companies:  companies,
	}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := token.FromHeaders(r.Header.Get("Authorization"), r.Header.Get("token"))
		if raw == "" {
			httputil.WriteError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		identity, err := m.Resolve(r.Context(), raw)
		if err != nil {
			if apperrors.GetCode(err) != apperrors.ErrCodeDatabase {
				audit.LogFromRequest(r, audit.Event{
					Type:    audit.EventAuthFailure,
					Details: map[string]interface{}{"path": r.URL.Path, "reason": err.Error()},
				})
			}
			httputil.WriteError(w, err)
			return
		}

		if identity.Delegated {
			audit.LogFromRequest(r, audit.Event{
				Type:        audit.EventDelegationUse,
				ActorID:     identity.ID,
				ActorRole:   string(identity.Role),
				InterviewID: identity.InterviewID,
				Details:     map[string]interface{}{"path": r.URL.Path},
			})
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// Resolve verifies raw and maps it to a candidate or recruiter. Delegation
// tokens resolve to the recruiter they were minted for.
func (m *AuthMiddleware) Resolve(ctx context.Context, raw string) (*model.Identity, error) {
	if token.IsDelegation(raw) {
		return m.resolveDelegation(ctx, raw)
	}

	partyID, err := m.sessions.Verify(raw)
	if err != nil {
		return nil, tokenError(err)
	}

	user, err := m.users.FindByID(ctx, partyID)
	if err != nil {
		log.Error().Err(err).Msg("auth middleware: database error")
		return nil, apperrors.Database(err)
	}
	if user != nil {
		return &model.Identity{ID: user.ID, Role: model.RoleCandidate, Name: user.Name}, nil
	}

	company, err := m.companies.FindByID(ctx, partyID)
	if err != nil {
		log.Error().Err(err).Msg("auth middleware: database error")
		return nil, apperrors.Database(err)
	}
	if company != nil {
		return &model.Identity{ID: company.ID, Role: model.RoleRecruiter, Name: company.Name}, nil
	}

	log.Warn().Str("partyId", partyID).Msg("auth middleware: token for unknown party")
	return nil, apperrors.Unauthorized("Unknown user")
}

func (m *AuthMiddleware) resolveDelegation(ctx context.Context, raw string) (*model.Identity, error) {
	claims, err := m.delegation.Verify(raw)
	if err != nil {
		return nil, tokenError(err)
	}

	company, err := m.companies.FindByID(ctx, claims.Subject)
	if err != nil {
		log.Error().Err(err).Msg("auth middleware: database error")
		return nil, apperrors.Database(err)
	}
	if company == nil {
		return nil, apperrors.Unauthorized("Unknown recruiter")
	}

	return &model.Identity{
		ID:          company.ID,
		Role:        model.RoleRecruiter,
		Name:        company.Name,
		Delegated:   true,
		InterviewID: claims.InterviewID,
	}, nil
}

func tokenError(err error) error {
	if errors.Is(err, token.ErrTokenExpired) {
		return apperrors.New(apperrors.ErrCodeTokenExpired, "Token expired")
	}
	return apperrors.InvalidToken("Invalid token")
}

// RequireRole rejects identities whose role is not in roles.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httputil.WriteError(w, apperrors.Forbidden("Not allowed for this role"))
		})
	}
}
