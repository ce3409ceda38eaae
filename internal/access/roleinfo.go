package access

import (
	"context"
	"slices"
)

// AccessLevel is the coarse authorization tier.
type AccessLevel string

const (
	LevelAdmin   AccessLevel = "admin"
	LevelZone    AccessLevel = "zone"
	LevelChapter AccessLevel = "chapter"
	LevelMember  AccessLevel = "member"
)

const (
	PermAll           = "*"
	PermDashboardRead = "dashboard.read"
	PermZoneRead      = "zone.read"
	PermChapterRead   = "chapter.read"
	PermMemberRead    = "member.read"
	PermReportRead    = "report.read"
	PermProfileRead   = "profile.read"
)

var levelPermissions = map[AccessLevel][]string{
	LevelAdmin:   {PermAll},
	LevelZone:    {PermDashboardRead, PermZoneRead, PermChapterRead, PermMemberRead, PermReportRead},
	LevelChapter: {PermDashboardRead, PermChapterRead, PermMemberRead},
	LevelMember:  {PermDashboardRead, PermProfileRead},
}

// PermissionsFor returns a fresh copy of the fixed permission set for level.
func PermissionsFor(level AccessLevel) []string {
	return slices.Clone(levelPermissions[level])
}

// RoleInfo is the per-request authorization descriptor.
//
// For LevelAdmin the authorized sets are empty and mean unrestricted; check
// Unrestricted before reading them.
type RoleInfo struct {
	Role               string      `json:"role"`
	AccessLevel        AccessLevel `json:"access_level"`
	MemberID           int64       `json:"member_id,omitempty"`
	AuthorizedChapters []int64     `json:"authorized_chapters"`
	AuthorizedZones    []int64     `json:"authorized_zones"`
	ContextLabel       string      `json:"context_label"`
	Permissions        []string    `json:"permissions"`
}

// Unrestricted reports whether the descriptor bypasses scope checks.
func (r RoleInfo) Unrestricted() bool { return r.AccessLevel == LevelAdmin }

// HasChapter reports whether chapterID is in the authorized chapter set.
// It does not consider admin status.
func (r RoleInfo) HasChapter(chapterID int64) bool {
	_, ok := slices.BinarySearch(r.AuthorizedChapters, chapterID)
	return ok
}

// HasZone reports whether zoneID is in the authorized zone set.
func (r RoleInfo) HasZone(zoneID int64) bool {
	_, ok := slices.BinarySearch(r.AuthorizedZones, zoneID)
	return ok
}

// HasPermission honors the admin wildcard.
func (r RoleInfo) HasPermission(perm string) bool {
	for _, p := range r.Permissions {
		if p == PermAll || p == perm {
			return true
		}
	}
	return false
}

type roleInfoKey struct{}

// WithRoleInfo attaches the inferred descriptor to a request context.
func WithRoleInfo(ctx context.Context, info RoleInfo) context.Context {
	return context.WithValue(ctx, roleInfoKey{}, info)
}

// RoleInfoFrom returns the descriptor attached by WithRoleInfo.
func RoleInfoFrom(ctx context.Context) (RoleInfo, bool) {
	if ctx == nil {
		return RoleInfo{}, false
	}
	info, ok := ctx.Value(roleInfoKey{}).(RoleInfo)
	return info, ok
}

// sortedIDs returns the distinct ids in ascending order, never nil.
func sortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
