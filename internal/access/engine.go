package access

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"chapterhub.org/internal/auth"
	"chapterhub.org/internal/member"
	"chapterhub.org/internal/obs"
)

const unrestrictedLabel = "All zones and chapters"

// Engine collapses a principal's raw role assignments into one RoleInfo.
// It holds no per-principal state: every call reads current persisted data.
type Engine struct {
	resolver *Resolver
}

// NewEngine builds an engine on top of resolver.
func NewEngine(resolver *Resolver) (*Engine, error) {
	if resolver == nil {
		return nil, errors.New("access: resolver is required")
	}
	return &Engine{resolver: resolver}, nil
}

// Infer derives the RoleInfo for principal.
func (e *Engine) Infer(ctx context.Context, principal auth.Principal) (info RoleInfo, err error) {
	ctx, span := tracer.Start(ctx, "access.Infer")
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetAttributes(attribute.String("access.level", string(info.AccessLevel)))
		}
		obs.ObserveInference(outcome, time.Since(start))
		span.End()
	}()
	span.SetAttributes(attribute.String("principal.id", principal.ID))

	if principal.IsAdmin() {
		return adminRoleInfo(principal), nil
	}

	profile, err := e.resolver.Resolve(ctx, principal.ID)
	if err != nil {
		if KindOf(err) == KindInternal {
			obs.Error("role inference failed", map[string]any{
				"principal_id": principal.ID,
				"error":        err,
			})
		}
		return RoleInfo{}, err
	}
	return InferFromProfile(profile)
}

func adminRoleInfo(p auth.Principal) RoleInfo {
	label := "Administrator"
	if p.IsSuperAdmin() {
		label = "Super Administrator"
	}
	return RoleInfo{
		Role:               label,
		AccessLevel:        LevelAdmin,
		AuthorizedChapters: []int64{},
		AuthorizedZones:    []int64{},
		ContextLabel:       unrestrictedLabel,
		Permissions:        PermissionsFor(LevelAdmin),
	}
}

// InferFromProfile is the pure part of inference: given a resolved profile
// it returns the descriptor or ErrNoRoleAssignments.
//
// Zone assignments take precedence. The display role and context label come
// from the lowest (ZoneID, RoleType) zone assignment, or for chapter level
// the lowest (ChapterID, RoleType) chapter assignment. Zone level does not
// add the chapters contained in the authorized zones.
func InferFromProfile(profile member.Profile) (RoleInfo, error) {
	zones := make(map[int64]struct{}, len(profile.ZoneRoles))
	for _, zr := range profile.ZoneRoles {
		zones[zr.ZoneID] = struct{}{}
	}
	chapters := make(map[int64]struct{}, len(profile.ChapterRoles))
	for _, cr := range profile.ChapterRoles {
		chapters[cr.ChapterID] = struct{}{}
	}
	if len(zones) == 0 && len(chapters) == 0 {
		return RoleInfo{}, ErrNoRoleAssignments
	}

	info := RoleInfo{
		MemberID:           profile.ID,
		AuthorizedChapters: sortedIDs(chapters),
		AuthorizedZones:    sortedIDs(zones),
	}

	if len(zones) > 0 {
		primary := slices.MinFunc(profile.ZoneRoles, compareZoneRoles)
		info.AccessLevel = LevelZone
		info.Role = primary.RoleType.DisplayName()
		info.ContextLabel = contextLabel(info.Role, primary.ZoneName, "Zone", primary.ZoneID)
	} else {
		primary := slices.MinFunc(profile.ChapterRoles, compareChapterRoles)
		info.AccessLevel = LevelChapter
		info.Role = primary.RoleType.DisplayName()
		info.ContextLabel = contextLabel(info.Role, primary.ChapterName, "Chapter", primary.ChapterID)
	}
	info.Permissions = PermissionsFor(info.AccessLevel)
	return info, nil
}

func compareZoneRoles(a, b member.ZoneRoleAssignment) int {
	return cmp.Or(cmp.Compare(a.ZoneID, b.ZoneID), cmp.Compare(a.RoleType, b.RoleType))
}

func compareChapterRoles(a, b member.ChapterRoleAssignment) int {
	return cmp.Or(cmp.Compare(a.ChapterID, b.ChapterID), cmp.Compare(a.RoleType, b.RoleType))
}

func contextLabel(role, scopeName, scopeKind string, scopeID int64) string {
	if scopeName == "" {
		scopeName = fmt.Sprintf("%s %d", scopeKind, scopeID)
	}
	return role + ", " + scopeName
}
