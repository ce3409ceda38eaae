package member

import (
	"strings"
	"time"
)

// ChapterRoleType is the closed set of officer tags assignable at chapter level.
type ChapterRoleType string

const (
	ChapterOfficeBearer        ChapterRoleType = "OB"
	ChapterDistrictCoordinator ChapterRoleType = "DC"
	ChapterRegionalDirector    ChapterRoleType = "RD"
)

var chapterRoleNames = map[ChapterRoleType]string{
	ChapterOfficeBearer:        "Office Bearer",
	ChapterDistrictCoordinator: "District Coordinator",
	ChapterRegionalDirector:    "Regional Director",
}

// ParseChapterRoleType accepts a tag in any case.
func ParseChapterRoleType(raw string) (ChapterRoleType, bool) {
	t := ChapterRoleType(strings.ToUpper(strings.TrimSpace(raw)))
	return t, t.Valid()
}

func (t ChapterRoleType) Valid() bool {
	_, ok := chapterRoleNames[t]
	return ok
}

// DisplayName returns the human readable role name, or the raw tag when unknown.
func (t ChapterRoleType) DisplayName() string {
	if name, ok := chapterRoleNames[t]; ok {
		return name
	}
	return string(t)
}

// ZoneRoleType is the closed set of officer tags assignable at zone level.
// It is independent of ChapterRoleType even where the tags coincide.
type ZoneRoleType string

const (
	ZoneRegionalDirector ZoneRoleType = "RD"
	ZoneHead             ZoneRoleType = "ZH"
	ZoneCoordinator      ZoneRoleType = "ZC"
)

var zoneRoleNames = map[ZoneRoleType]string{
	ZoneRegionalDirector: "Regional Director",
	ZoneHead:             "Zonal Head",
	ZoneCoordinator:      "Zonal Coordinator",
}

// ParseZoneRoleType accepts a tag in any case.
func ParseZoneRoleType(raw string) (ZoneRoleType, bool) {
	t := ZoneRoleType(strings.ToUpper(strings.TrimSpace(raw)))
	return t, t.Valid()
}

func (t ZoneRoleType) Valid() bool {
	_, ok := zoneRoleNames[t]
	return ok
}

func (t ZoneRoleType) DisplayName() string {
	if name, ok := zoneRoleNames[t]; ok {
		return name
	}
	return string(t)
}

// Zone groups chapters geographically.
type Zone struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Chapter belongs to exactly one zone.
type Chapter struct {
	ID     int64  `json:"id"`
	ZoneID int64  `json:"zone_id"`
	Name   string `json:"name"`
}

// ChapterRoleAssignment grants a member an officer role in one chapter.
type ChapterRoleAssignment struct {
	MemberID    int64           `json:"member_id"`
	ChapterID   int64           `json:"chapter_id"`
	ChapterName string          `json:"chapter_name,omitempty"`
	RoleType    ChapterRoleType `json:"role_type"`
}

// ZoneRoleAssignment grants a member an officer role across one zone.
type ZoneRoleAssignment struct {
	MemberID int64        `json:"member_id"`
	ZoneID   int64        `json:"zone_id"`
	ZoneName string       `json:"zone_name,omitempty"`
	RoleType ZoneRoleType `json:"role_type"`
}

// Profile is the membership record linked to a principal. It owns its role
// assignments; removing the profile removes them.
type Profile struct {
	ID                  int64                   `json:"id"`
	PrincipalID         string                  `json:"principal_id"`
	Name                string                  `json:"name"`
	MembershipExpiresAt *time.Time              `json:"membership_expires_at,omitempty"`
	ChapterRoles        []ChapterRoleAssignment `json:"chapter_roles"`
	ZoneRoles           []ZoneRoleAssignment    `json:"zone_roles"`
}

// ExpiryStatus is the verdict of the membership expiry check.
type ExpiryStatus struct {
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
