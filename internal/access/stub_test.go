package access

import (
	"context"
	"testing"

	"chapterhub.org/internal/member"
)

type stubStore struct {
	findProfileFn  func(context.Context, string) (member.Profile, error)
	findZoneFn     func(context.Context, int64) (member.Zone, error)
	findChapterFn  func(context.Context, int64) (member.Chapter, error)
	listChaptersFn func(context.Context, int64) ([]member.Chapter, error)
	listByTypeFn   func(context.Context, int64, []member.ChapterRoleType) ([]member.ChapterRoleAssignment, error)
	checkExpiryFn  func(context.Context, string) (member.ExpiryStatus, error)

	calls int
}

func (s *stubStore) FindProfileByPrincipal(ctx context.Context, principalID string) (member.Profile, error) {
	s.calls++
	if s.findProfileFn != nil {
		return s.findProfileFn(ctx, principalID)
	}
	return member.Profile{}, member.ErrNotFound
}

func (s *stubStore) FindZone(ctx context.Context, zoneID int64) (member.Zone, error) {
	s.calls++
	if s.findZoneFn != nil {
		return s.findZoneFn(ctx, zoneID)
	}
	return member.Zone{}, member.ErrNotFound
}

func (s *stubStore) FindChapter(ctx context.Context, chapterID int64) (member.Chapter, error) {
	s.calls++
	if s.findChapterFn != nil {
		return s.findChapterFn(ctx, chapterID)
	}
	return member.Chapter{}, member.ErrNotFound
}

func (s *stubStore) ListChaptersByZone(ctx context.Context, zoneID int64) ([]member.Chapter, error) {
	s.calls++
	if s.listChaptersFn != nil {
		return s.listChaptersFn(ctx, zoneID)
	}
	return nil, nil
}

func (s *stubStore) ListChapterRolesByType(ctx context.Context, memberID int64, types []member.ChapterRoleType) ([]member.ChapterRoleAssignment, error) {
	s.calls++
	if s.listByTypeFn != nil {
		return s.listByTypeFn(ctx, memberID, types)
	}
	return nil, nil
}

func (s *stubStore) CheckExpiry(ctx context.Context, principalID string) (member.ExpiryStatus, error) {
	s.calls++
	if s.checkExpiryFn != nil {
		return s.checkExpiryFn(ctx, principalID)
	}
	return member.ExpiryStatus{Active: true}, nil
}

// profileStore returns a stub that serves profile for every principal.
func profileStore(profile member.Profile) *stubStore {
	return &stubStore{
		findProfileFn: func(context.Context, string) (member.Profile, error) {
			return profile, nil
		},
	}
}

func newTestEngine(t *testing.T, store *stubStore) *Engine {
	t.Helper()
	resolver, err := NewResolver(store, store)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	engine, err := NewEngine(resolver)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func newTestRoleGuard(t *testing.T, store member.Store) *RoleTypeGuard {
	t.Helper()
	g, err := NewRoleTypeGuard(store)
	if err != nil {
		t.Fatalf("NewRoleTypeGuard: %v", err)
	}
	return g
}
