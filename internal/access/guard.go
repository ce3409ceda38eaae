package access

import (
	"context"
	"errors"

	"chapterhub.org/internal/member"
)

// Guard names used in logs and metrics.
const (
	GuardChapter  = "chapter"
	GuardZone     = "zone"
	GuardRoleType = "role_type"
)

// CheckChapter authorizes access to one chapter. Admins pass; everyone else
// needs the chapter in their authorized set.
func CheckChapter(info RoleInfo, chapterID int64) error {
	if info.Unrestricted() {
		return nil
	}
	if info.HasChapter(chapterID) {
		return nil
	}
	return Forbidden("no access to chapter %d", chapterID)
}

// CheckZone authorizes access to one zone. Non-admins need an actual zone
// level assignment for that zone; chapter officers never pass, even when
// their chapter lies inside the zone.
func CheckZone(info RoleInfo, zoneID int64) error {
	if info.Unrestricted() {
		return nil
	}
	if info.AccessLevel != LevelZone {
		return Forbidden("zone access requires a zone-level role")
	}
	if info.HasZone(zoneID) {
		return nil
	}
	return Forbidden("no access to zone %d", zoneID)
}

// RoleTypeGuard authorizes a chapter by the role type the member holds there.
// Unlike CheckChapter it reads raw assignments from the store.
type RoleTypeGuard struct {
	store member.Store
}

func NewRoleTypeGuard(store member.Store) (*RoleTypeGuard, error) {
	if store == nil {
		return nil, errors.New("access: member store is required")
	}
	return &RoleTypeGuard{store: store}, nil
}

// Breakdown maps each accepted role type to the chapters where the member holds it.
func (g *RoleTypeGuard) Breakdown(ctx context.Context, memberID int64, types []member.ChapterRoleType) (map[member.ChapterRoleType]map[int64]struct{}, error) {
	out := make(map[member.ChapterRoleType]map[int64]struct{}, len(types))
	if len(types) == 0 {
		return out, nil
	}
	rows, err := g.store.ListChapterRolesByType(ctx, memberID, types)
	if err != nil {
		return nil, Internal("list chapter roles failed", err)
	}
	for _, row := range rows {
		set, ok := out[row.RoleType]
		if !ok {
			set = make(map[int64]struct{})
			out[row.RoleType] = set
		}
		set[row.ChapterID] = struct{}{}
	}
	return out, nil
}

// Check passes admins, denies everyone when accepted is empty, and otherwise
// requires chapterID under at least one accepted role type.
func (g *RoleTypeGuard) Check(ctx context.Context, info RoleInfo, chapterID int64, accepted []member.ChapterRoleType) error {
	if info.Unrestricted() {
		return nil
	}
	if len(accepted) == 0 {
		return Forbidden("route accepts no role types")
	}
	if info.MemberID == 0 {
		return Forbidden("no member profile for role check")
	}
	breakdown, err := g.Breakdown(ctx, info.MemberID, accepted)
	if err != nil {
		return err
	}
	for _, t := range accepted {
		if _, ok := breakdown[t][chapterID]; ok {
			return nil
		}
	}
	return Forbidden("requires role %v in chapter %d", accepted, chapterID)
}
