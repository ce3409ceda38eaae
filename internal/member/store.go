package member

import (
	"context"
	"time"
)

// Store is the read-only persistence surface the access core depends on.
type Store interface {
	// FindProfileByPrincipal returns the profile linked to the principal with
	// chapter and zone role assignments expanded. ErrNotFound when unlinked.
	FindProfileByPrincipal(ctx context.Context, principalID string) (Profile, error)
	// FindZone returns ErrNotFound for unknown zones.
	FindZone(ctx context.Context, zoneID int64) (Zone, error)
	FindChapter(ctx context.Context, chapterID int64) (Chapter, error)
	ListChaptersByZone(ctx context.Context, zoneID int64) ([]Chapter, error)
	// ListChapterRolesByType returns the member's chapter assignments whose
	// role type is one of types. An empty types list yields no rows.
	ListChapterRolesByType(ctx context.Context, memberID int64, types []ChapterRoleType) ([]ChapterRoleAssignment, error)
}

// ExpiryChecker decides whether a member's access is currently suspended
// because the membership lapsed.
type ExpiryChecker interface {
	CheckExpiry(ctx context.Context, principalID string) (ExpiryStatus, error)
}

// StatusAt evaluates an expiry timestamp against now with a grace period.
// A nil expiry means the membership does not lapse.
func StatusAt(expiresAt *time.Time, now time.Time, grace time.Duration) ExpiryStatus {
	if expiresAt == nil {
		return ExpiryStatus{Active: true}
	}
	exp := expiresAt.UTC()
	return ExpiryStatus{
		Active:    now.Before(exp.Add(grace)),
		ExpiresAt: &exp,
	}
}
