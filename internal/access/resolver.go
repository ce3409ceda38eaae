package access

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chapterhub.org/internal/member"
)

var tracer = otel.Tracer("chapterhub.org/internal/access")

// Resolver loads the member profile behind a principal and enforces the
// membership expiry policy before any role is considered.
type Resolver struct {
	store  member.Store
	expiry member.ExpiryChecker
}

// NewResolver wires the persistence and expiry collaborators.
func NewResolver(store member.Store, expiry member.ExpiryChecker) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("access: member store is required")
	}
	if expiry == nil {
		return nil, errors.New("access: expiry checker is required")
	}
	return &Resolver{store: store, expiry: expiry}, nil
}

// Resolve returns the profile with its chapter and zone assignments.
// Failures are ErrMemberNotFound, ErrMembershipExpired or ErrInternal kinds.
func (r *Resolver) Resolve(ctx context.Context, principalID string) (member.Profile, error) {
	ctx, span := tracer.Start(ctx, "access.Resolve",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("principal.id", principalID)),
	)
	defer span.End()

	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return member.Profile{}, ErrUnauthenticated
	}

	profile, err := r.store.FindProfileByPrincipal(ctx, principalID)
	switch {
	case errors.Is(err, member.ErrNotFound):
		return member.Profile{}, ErrMemberNotFound
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile lookup failed")
		return member.Profile{}, Internal("profile lookup failed", err)
	}

	status, err := r.expiry.CheckExpiry(ctx, principalID)
	switch {
	case errors.Is(err, member.ErrNotFound):
		// profile vanished between the two reads
		return member.Profile{}, ErrMemberNotFound
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "expiry check failed")
		return member.Profile{}, Internal("membership expiry check failed", err)
	}
	if !status.Active {
		span.SetAttributes(attribute.Bool("membership.expired", true))
		msg := ErrMembershipExpired.Message
		if status.ExpiresAt != nil {
			msg += " on " + status.ExpiresAt.Format("2006-01-02")
		}
		return member.Profile{}, newError(KindMembershipExpired, msg, nil)
	}

	span.SetAttributes(
		attribute.Int64("member.id", profile.ID),
		attribute.Int("member.chapter_roles", len(profile.ChapterRoles)),
		attribute.Int("member.zone_roles", len(profile.ZoneRoles)),
	)
	return profile, nil
}
