package grpcapi

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"chapterhub.org/internal/access"
	"chapterhub.org/internal/audit"
	"chapterhub.org/internal/auth"
	"chapterhub.org/internal/obs"
)

const (
	authMetadataKey      = "authorization"
	requestIDMetadataKey = "x-request-id"
	healthServicePrefix  = "/grpc.health.v1.Health/"
)

// Authenticator turns a bearer credential into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// RoleInferrer derives the per-call access descriptor.
type RoleInferrer interface {
	Infer(ctx context.Context, principal auth.Principal) (access.RoleInfo, error)
}

// Scope binds a method to a chapter or zone guard. The identifier is read
// from incoming metadata under Field.
type Scope struct {
	Guard    string
	Field    string
	Optional bool
}

type interceptorConfig struct {
	public map[string]bool
	scopes map[string]Scope
}

// Option configures UnaryInterceptor.
type Option func(*interceptorConfig)

// WithPublicMethod lets fullMethod through without credentials.
func WithPublicMethod(fullMethod string) Option {
	return func(c *interceptorConfig) { c.public[fullMethod] = true }
}

// WithMethodScope guards fullMethod with s after inference.
func WithMethodScope(fullMethod string, s Scope) Option {
	return func(c *interceptorConfig) { c.scopes[fullMethod] = s }
}

// UnaryInterceptor authenticates the bearer metadata, infers the caller's
// RoleInfo and attaches both to the handler context. Health checks are public.
func UnaryInterceptor(authn Authenticator, engine RoleInferrer, opts ...Option) grpc.UnaryServerInterceptor {
	cfg := &interceptorConfig{public: map[string]bool{}, scopes: map[string]Scope{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) || cfg.public[info.FullMethod] {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		if rid := firstValue(md, requestIDMetadataKey); rid != "" {
			ctx = audit.WithRequestID(ctx, rid)
		}

		principal, err := authenticate(ctx, authn, firstValue(md, authMetadataKey))
		if err != nil {
			return nil, StatusFromError(err)
		}
		ctx = auth.WithPrincipal(ctx, principal)

		roleInfo, err := engine.Infer(ctx, principal)
		if err != nil {
			if access.KindOf(err) != access.KindInternal {
				_ = audit.LogEvent(ctx, "access.denied", map[string]any{
					"method": info.FullMethod,
					"reason": string(access.KindOf(err)),
				})
			}
			return nil, StatusFromError(err)
		}
		ctx = access.WithRoleInfo(ctx, roleInfo)

		if scope, ok := cfg.scopes[info.FullMethod]; ok {
			if err := checkScope(ctx, md, roleInfo, scope); err != nil {
				return nil, StatusFromError(err)
			}
		}
		return handler(ctx, req)
	}
}

func authenticate(ctx context.Context, authn Authenticator, header string) (auth.Principal, error) {
	header = strings.TrimSpace(header)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		token, ok = strings.CutPrefix(header, "bearer ")
	}
	if !ok || strings.TrimSpace(token) == "" {
		return auth.Principal{}, access.Unauthenticated("missing bearer token")
	}
	principal, err := authn.Authenticate(ctx, strings.TrimSpace(token))
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return auth.Principal{}, access.Unauthenticated("invalid token")
	case err != nil:
		obs.Error("authentication failed", map[string]any{
			"request_id": audit.RequestID(ctx),
			"error":      err,
		})
		return auth.Principal{}, access.Internal("authentication failed", err)
	case !principal.Active:
		return auth.Principal{}, access.Forbidden("account is suspended")
	}
	return principal, nil
}

func checkScope(ctx context.Context, md metadata.MD, info access.RoleInfo, scope Scope) error {
	if info.Unrestricted() {
		obs.ObserveGuard(scope.Guard, "allow")
		return nil
	}
	field := scope.Field
	if field == "" {
		field = access.DefaultChapterField
		if scope.Guard == access.GuardZone {
			field = access.DefaultZoneField
		}
	}
	src := access.ValuesSource("metadata", map[string]string{field: firstValue(md, field)})
	id, found, err := access.Extractor{src}.ID(field, scope.Optional)
	if err == nil && found {
		switch scope.Guard {
		case access.GuardZone:
			err = access.CheckZone(info, id)
		default:
			err = access.CheckChapter(info, id)
		}
	}
	switch access.KindOf(err) {
	case "":
		obs.ObserveGuard(scope.Guard, "allow")
	case access.KindBadRequest:
		obs.ObserveGuard(scope.Guard, "bad_request")
	default:
		obs.ObserveGuard(scope.Guard, "deny")
		_ = audit.LogEvent(ctx, "access.denied", map[string]any{
			"guard":       scope.Guard,
			"resource_id": id,
			"reason":      access.AsError(err).Message,
		})
	}
	return err
}

func firstValue(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
