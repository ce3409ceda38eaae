package access

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	"chapterhub.org/internal/auth"
	"chapterhub.org/internal/member"
)

func principal(id string, roles ...string) auth.Principal {
	return auth.NewPrincipal(id, roles, true)
}

func TestInferAdminSkipsStore(t *testing.T) {
	for _, role := range []string{"admin", "ADMIN", "Super_Admin"} {
		store := &stubStore{
			findProfileFn: func(context.Context, string) (member.Profile, error) {
				t.Fatalf("admin inference must not load a profile")
				return member.Profile{}, nil
			},
		}
		engine := newTestEngine(t, store)

		info, err := engine.Infer(context.Background(), principal("root", "member", role))
		if err != nil {
			t.Fatalf("Infer(%s): %v", role, err)
		}
		if info.AccessLevel != LevelAdmin || !info.Unrestricted() {
			t.Fatalf("expected admin level, got %+v", info)
		}
		if len(info.AuthorizedChapters) != 0 || len(info.AuthorizedZones) != 0 {
			t.Fatalf("admin sets must be empty: %+v", info)
		}
		if !slices.Equal(info.Permissions, []string{PermAll}) || !info.HasPermission("anything.at.all") {
			t.Fatalf("expected wildcard permissions, got %v", info.Permissions)
		}

		guard := newTestRoleGuard(t, store)
		for _, id := range []int64{1, 12, 99999} {
			if err := CheckChapter(info, id); err != nil {
				t.Fatalf("admin chapter %d: %v", id, err)
			}
			if err := CheckZone(info, id); err != nil {
				t.Fatalf("admin zone %d: %v", id, err)
			}
			if err := guard.Check(context.Background(), info, id, nil); err != nil {
				t.Fatalf("admin role-type guard %d: %v", id, err)
			}
		}
		if store.calls != 0 {
			t.Fatalf("expected no store calls for admin, got %d", store.calls)
		}
	}

	engine := newTestEngine(t, &stubStore{})
	info, err := engine.Infer(context.Background(), principal("root", "super_admin"))
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if info.Role != "Super Administrator" || info.ContextLabel != "All zones and chapters" {
		t.Fatalf("unexpected admin labels: %+v", info)
	}
}

func TestInferChapterOnlyMember(t *testing.T) {
	store := profileStore(member.Profile{
		ID:          7,
		PrincipalID: "user-1",
		ChapterRoles: []member.ChapterRoleAssignment{
			{MemberID: 7, ChapterID: 3, ChapterName: "Lakeside", RoleType: member.ChapterOfficeBearer},
		},
	})
	engine := newTestEngine(t, store)

	info, err := engine.Infer(context.Background(), principal("user-1", "member"))
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if info.AccessLevel != LevelChapter || info.MemberID != 7 {
		t.Fatalf("unexpected descriptor: %+v", info)
	}
	if !slices.Equal(info.AuthorizedChapters, []int64{3}) || len(info.AuthorizedZones) != 0 {
		t.Fatalf("unexpected sets: %+v", info)
	}
	if info.Role != "Office Bearer" || info.ContextLabel != "Office Bearer, Lakeside" {
		t.Fatalf("unexpected labels: %q / %q", info.Role, info.ContextLabel)
	}
	if !info.HasPermission(PermDashboardRead) || info.HasPermission(PermZoneRead) {
		t.Fatalf("unexpected permissions: %v", info.Permissions)
	}

	if err := CheckChapter(info, 3); err != nil {
		t.Fatalf("expected chapter 3 to pass: %v", err)
	}
	if err := CheckChapter(info, 4); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for chapter 4, got %v", err)
	}
	for _, zone := range []int64{1, 3, 12} {
		if err := CheckZone(info, zone); !errors.Is(err, ErrForbidden) {
			t.Fatalf("chapter officer must never pass zone %d, got %v", zone, err)
		}
	}
}

func TestInferZoneMemberEndToEnd(t *testing.T) {
	store := profileStore(member.Profile{
		ID:          9,
		PrincipalID: "rd-user",
		ZoneRoles: []member.ZoneRoleAssignment{
			{MemberID: 9, ZoneID: 12, ZoneName: "North", RoleType: member.ZoneRegionalDirector},
		},
	})
	engine := newTestEngine(t, store)

	info, err := engine.Infer(context.Background(), principal("rd-user"))
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if info.AccessLevel != LevelZone {
		t.Fatalf("expected zone level, got %s", info.AccessLevel)
	}
	if !slices.Equal(info.AuthorizedZones, []int64{12}) || len(info.AuthorizedChapters) != 0 {
		t.Fatalf("unexpected sets: %+v", info)
	}
	if info.ContextLabel != "Regional Director, North" {
		t.Fatalf("unexpected context label: %q", info.ContextLabel)
	}
	if err := CheckZone(info, 12); err != nil {
		t.Fatalf("zone 12 should pass: %v", err)
	}
	if err := CheckZone(info, 13); !errors.Is(err, ErrForbidden) || AsError(err).HTTPStatus() != 403 {
		t.Fatalf("zone 13 should be forbidden, got %v", err)
	}
}

func TestInferFailureKinds(t *testing.T) {
	t.Run("no profile", func(t *testing.T) {
		engine := newTestEngine(t, &stubStore{})
		_, err := engine.Infer(context.Background(), principal("ghost"))
		if !errors.Is(err, ErrMemberNotFound) {
			t.Fatalf("expected ErrMemberNotFound, got %v", err)
		}
	})

	t.Run("no assignments", func(t *testing.T) {
		engine := newTestEngine(t, profileStore(member.Profile{ID: 5, PrincipalID: "bare"}))
		_, err := engine.Infer(context.Background(), principal("bare", "member"))
		if !errors.Is(err, ErrNoRoleAssignments) {
			t.Fatalf("expected ErrNoRoleAssignments, got %v", err)
		}
		if errors.Is(err, ErrMemberNotFound) {
			t.Fatalf("no-assignment and no-profile must stay distinct")
		}
	})

	t.Run("expired membership wins over roles", func(t *testing.T) {
		lapsed := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
		store := profileStore(member.Profile{
			ID: 5,
			ZoneRoles: []member.ZoneRoleAssignment{
				{MemberID: 5, ZoneID: 1, RoleType: member.ZoneHead},
			},
		})
		store.checkExpiryFn = func(context.Context, string) (member.ExpiryStatus, error) {
			return member.ExpiryStatus{Active: false, ExpiresAt: &lapsed}, nil
		}
		_, err := newTestEngine(t, store).Infer(context.Background(), principal("old"))
		if !errors.Is(err, ErrMembershipExpired) {
			t.Fatalf("expected ErrMembershipExpired, got %v", err)
		}
		if AsError(err).Message != "membership has expired on 2025-12-31" {
			t.Fatalf("unexpected message: %q", AsError(err).Message)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := &stubStore{
			findProfileFn: func(context.Context, string) (member.Profile, error) {
				return member.Profile{}, errors.New("connection refused")
			},
		}
		_, err := newTestEngine(t, store).Infer(context.Background(), principal("user-1"))
		if KindOf(err) != KindInternal {
			t.Fatalf("expected internal error, got %v", err)
		}
	})

	t.Run("expiry failure", func(t *testing.T) {
		store := profileStore(member.Profile{ID: 1, ChapterRoles: []member.ChapterRoleAssignment{{ChapterID: 1, RoleType: member.ChapterOfficeBearer}}})
		store.checkExpiryFn = func(context.Context, string) (member.ExpiryStatus, error) {
			return member.ExpiryStatus{}, errors.New("timeout")
		}
		_, err := newTestEngine(t, store).Infer(context.Background(), principal("user-1"))
		if KindOf(err) != KindInternal {
			t.Fatalf("expected internal error, got %v", err)
		}
	})
}

func TestInferIsIdempotent(t *testing.T) {
	store := profileStore(member.Profile{
		ID: 2,
		ChapterRoles: []member.ChapterRoleAssignment{
			{ChapterID: 8, ChapterName: "Harbor", RoleType: member.ChapterDistrictCoordinator},
			{ChapterID: 3, ChapterName: "Lakeside", RoleType: member.ChapterOfficeBearer},
			{ChapterID: 8, ChapterName: "Harbor", RoleType: member.ChapterOfficeBearer},
		},
	})
	engine := newTestEngine(t, store)

	first, err := engine.Infer(context.Background(), principal("user-2"))
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	second, err := engine.Infer(context.Background(), principal("user-2"))
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("inference is not idempotent:\n%+v\n%+v", first, second)
	}
	if !slices.Equal(first.AuthorizedChapters, []int64{3, 8}) {
		t.Fatalf("chapters not de-duplicated and sorted: %v", first.AuthorizedChapters)
	}
	if store.calls != 4 {
		t.Fatalf("expected fresh reads per inference (4 calls), got %d", store.calls)
	}
}

func TestInferTieBreakIsOrderIndependent(t *testing.T) {
	chapterRoles := []member.ChapterRoleAssignment{
		{ChapterID: 8, ChapterName: "Harbor", RoleType: member.ChapterOfficeBearer},
		{ChapterID: 3, ChapterName: "Lakeside", RoleType: member.ChapterRegionalDirector},
		{ChapterID: 3, ChapterName: "Lakeside", RoleType: member.ChapterDistrictCoordinator},
	}
	zoneRoles := []member.ZoneRoleAssignment{
		{ZoneID: 20, ZoneName: "South", RoleType: member.ZoneHead},
		{ZoneID: 4, ZoneName: "East", RoleType: member.ZoneRegionalDirector},
		{ZoneID: 4, ZoneName: "East", RoleType: member.ZoneCoordinator},
	}

	forward, err := InferFromProfile(member.Profile{ID: 1, ChapterRoles: chapterRoles})
	if err != nil {
		t.Fatalf("InferFromProfile: %v", err)
	}
	reversed := slices.Clone(chapterRoles)
	slices.Reverse(reversed)
	backward, err := InferFromProfile(member.Profile{ID: 1, ChapterRoles: reversed})
	if err != nil {
		t.Fatalf("InferFromProfile: %v", err)
	}
	if !reflect.DeepEqual(forward, backward) {
		t.Fatalf("chapter tie-break depends on input order")
	}
	// lowest chapter id, then lowest role tag: (3, DC)
	if forward.ContextLabel != "District Coordinator, Lakeside" {
		t.Fatalf("unexpected chapter context label %q", forward.ContextLabel)
	}

	mixed, err := InferFromProfile(member.Profile{ID: 1, ChapterRoles: chapterRoles, ZoneRoles: zoneRoles})
	if err != nil {
		t.Fatalf("InferFromProfile: %v", err)
	}
	if mixed.AccessLevel != LevelZone {
		t.Fatalf("zone assignments must take precedence, got %s", mixed.AccessLevel)
	}
	// (4, RD) sorts before (4, ZC)
	if mixed.Role != "Regional Director" || mixed.ContextLabel != "Regional Director, East" {
		t.Fatalf("unexpected zone labels %q / %q", mixed.Role, mixed.ContextLabel)
	}
	if !slices.Equal(mixed.AuthorizedZones, []int64{4, 20}) || !slices.Equal(mixed.AuthorizedChapters, []int64{3, 8}) {
		t.Fatalf("unexpected sets: %+v", mixed)
	}
	if mixed.HasZone(5) || !mixed.HasChapter(8) {
		t.Fatalf("set membership lookups are wrong")
	}
}

func TestContextLabelFallsBackToScopeID(t *testing.T) {
	info, err := InferFromProfile(member.Profile{ZoneRoles: []member.ZoneRoleAssignment{{ZoneID: 12, RoleType: member.ZoneCoordinator}}})
	if err != nil {
		t.Fatalf("InferFromProfile: %v", err)
	}
	if info.ContextLabel != "Zonal Coordinator, Zone 12" {
		t.Fatalf("unexpected label %q", info.ContextLabel)
	}
}

func TestRoleInfoContext(t *testing.T) {
	if _, ok := RoleInfoFrom(context.Background()); ok {
		t.Fatalf("expected no role info")
	}
	info := RoleInfo{AccessLevel: LevelChapter, AuthorizedChapters: []int64{1}}
	got, ok := RoleInfoFrom(WithRoleInfo(context.Background(), info))
	if !ok || !reflect.DeepEqual(got, info) {
		t.Fatalf("unexpected role info from context: %+v", got)
	}
	if !slices.Equal(PermissionsFor(LevelMember), []string{PermDashboardRead, PermProfileRead}) {
		t.Fatalf("unexpected member permissions")
	}
}
