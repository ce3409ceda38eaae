package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"chapterhub.org/internal/access"
	"chapterhub.org/internal/audit"
	"chapterhub.org/internal/auth"
	"chapterhub.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Authenticator turns a bearer credential into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// RoleInferrer derives the per-request access descriptor.
type RoleInferrer interface {
	Infer(ctx context.Context, principal auth.Principal) (access.RoleInfo, error)
}

// withAuth attaches the authenticated principal or rejects with 401.
// Suspended principals are known but refused with 403.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeAccessError(w, r, access.Unauthenticated(err.Error()))
			return
		}

		principal, err := a.authn.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeAccessError(w, r, access.Unauthenticated("invalid token"))
				return
			}
			obs.Error("authentication failed", map[string]any{
				"request_id": audit.RequestID(r.Context()),
				"error":      err,
			})
			writeAccessError(w, r, access.Internal("authentication failed", err))
			return
		}

		ctx := auth.WithPrincipal(r.Context(), principal)
		if !principal.Active {
			_ = audit.LogEvent(ctx, "access.denied", map[string]any{
				"reason": "principal suspended",
			})
			writeAccessError(w, r, access.Forbidden("account is suspended"))
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRoleInfo runs inference once per request and attaches the result.
func (a *API) withRoleInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			writeAccessError(w, r, access.ErrUnauthenticated)
			return
		}

		info, err := a.engine.Infer(r.Context(), principal)
		if err != nil {
			// Internal failures are logged by the engine.
			switch kind := access.KindOf(err); kind {
			case access.KindInternal:
			case access.KindMembershipExpired:
				_ = audit.LogEvent(r.Context(), "membership.expired", map[string]any{
					"detail": access.AsError(err).Message,
				})
			default:
				_ = audit.LogEvent(r.Context(), "access.denied", map[string]any{
					"reason": string(kind),
				})
			}
			writeAccessError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(access.WithRoleInfo(r.Context(), info)))
	})
}

// protect runs authenticate, then infer, then h.
func (a *API) protect(h http.Handler) http.Handler {
	return a.withAuth(a.withRoleInfo(h))
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
