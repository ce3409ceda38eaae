package member

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	_ Store         = (*InMemory)(nil)
	_ ExpiryChecker = (*InMemory)(nil)
)

// InMemory implements Store and ExpiryChecker in process. It backs dev mode
// and tests; production uses the PostgreSQL store.
type InMemory struct {
	mu       sync.RWMutex
	zones    map[int64]Zone
	chapters map[int64]Chapter
	profiles map[int64]Profile // without assignments
	byUser   map[string]int64
	chRoles  map[int64][]ChapterRoleAssignment
	znRoles  map[int64][]ZoneRoleAssignment
	nextID   int64

	now   func() time.Time
	grace time.Duration
}

// MemoryOption configures InMemory.
type MemoryOption func(*InMemory)

// WithExpiryGrace extends lapsed memberships by d before they are suspended.
func WithExpiryGrace(d time.Duration) MemoryOption {
	return func(s *InMemory) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithMemoryClock replaces the time source for expiry checks.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *InMemory) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemory creates an empty store.
func NewInMemory(opts ...MemoryOption) *InMemory {
	s := &InMemory{
		zones:    make(map[int64]Zone),
		chapters: make(map[int64]Chapter),
		profiles: make(map[int64]Profile),
		byUser:   make(map[string]int64),
		chRoles:  make(map[int64][]ChapterRoleAssignment),
		znRoles:  make(map[int64][]ZoneRoleAssignment),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) id() int64 {
	s.nextID++
	return s.nextID
}

// AddZone registers a zone and returns it with its assigned id.
func (s *InMemory) AddZone(name string) Zone {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := Zone{ID: s.id(), Name: strings.TrimSpace(name)}
	s.zones[z.ID] = z
	return z
}

// AddChapter registers a chapter inside an existing zone.
func (s *InMemory) AddChapter(zoneID int64, name string) (Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[zoneID]; !ok {
		return Chapter{}, fmt.Errorf("%w: zone %d", ErrNotFound, zoneID)
	}
	c := Chapter{ID: s.id(), ZoneID: zoneID, Name: strings.TrimSpace(name)}
	s.chapters[c.ID] = c
	return c, nil
}

// AddProfile links a new member profile to principalID.
func (s *InMemory) AddProfile(principalID, name string, expiresAt *time.Time) (Profile, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return Profile{}, fmt.Errorf("%w: principal id is required", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[principalID]; ok {
		return Profile{}, fmt.Errorf("%w: principal %s already has a profile", ErrInvalidInput, principalID)
	}
	p := Profile{ID: s.id(), PrincipalID: principalID, Name: strings.TrimSpace(name), MembershipExpiresAt: expiresAt}
	s.profiles[p.ID] = p
	s.byUser[principalID] = p.ID
	return p, nil
}

// AssignChapterRole grants roleType in chapterID to memberID.
func (s *InMemory) AssignChapterRole(memberID, chapterID int64, roleType ChapterRoleType) error {
	if !roleType.Valid() {
		return fmt.Errorf("%w: chapter role type %q", ErrInvalidInput, roleType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[memberID]; !ok {
		return fmt.Errorf("%w: member %d", ErrNotFound, memberID)
	}
	ch, ok := s.chapters[chapterID]
	if !ok {
		return fmt.Errorf("%w: chapter %d", ErrNotFound, chapterID)
	}
	s.chRoles[memberID] = append(s.chRoles[memberID], ChapterRoleAssignment{
		MemberID:    memberID,
		ChapterID:   chapterID,
		ChapterName: ch.Name,
		RoleType:    roleType,
	})
	return nil
}

// AssignZoneRole grants roleType in zoneID to memberID.
func (s *InMemory) AssignZoneRole(memberID, zoneID int64, roleType ZoneRoleType) error {
	if !roleType.Valid() {
		return fmt.Errorf("%w: zone role type %q", ErrInvalidInput, roleType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[memberID]; !ok {
		return fmt.Errorf("%w: member %d", ErrNotFound, memberID)
	}
	if _, ok := s.zones[zoneID]; !ok {
		return fmt.Errorf("%w: zone %d", ErrNotFound, zoneID)
	}
	s.znRoles[memberID] = append(s.znRoles[memberID], ZoneRoleAssignment{
		MemberID: memberID,
		ZoneID:   zoneID,
		RoleType: roleType,
	})
	return nil
}

// DeleteProfile removes the profile together with every role assignment it owns.
func (s *InMemory) DeleteProfile(memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[memberID]
	if !ok {
		return ErrNotFound
	}
	delete(s.profiles, memberID)
	delete(s.byUser, p.PrincipalID)
	delete(s.chRoles, memberID)
	delete(s.znRoles, memberID)
	return nil
}

func (s *InMemory) FindProfileByPrincipal(ctx context.Context, principalID string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUser[strings.TrimSpace(principalID)]
	if !ok {
		return Profile{}, ErrNotFound
	}
	p := s.profiles[id]
	p.ChapterRoles = append([]ChapterRoleAssignment(nil), s.chRoles[id]...)
	zoneRoles := make([]ZoneRoleAssignment, 0, len(s.znRoles[id]))
	for _, zr := range s.znRoles[id] {
		// zone relation is expanded at read time so renames show up
		zr.ZoneName = s.zones[zr.ZoneID].Name
		zoneRoles = append(zoneRoles, zr)
	}
	p.ZoneRoles = zoneRoles
	return p, nil
}

func (s *InMemory) FindZone(ctx context.Context, zoneID int64) (Zone, error) {
	if err := ctx.Err(); err != nil {
		return Zone{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	z, ok := s.zones[zoneID]
	if !ok {
		return Zone{}, ErrNotFound
	}
	return z, nil
}

func (s *InMemory) FindChapter(ctx context.Context, chapterID int64) (Chapter, error) {
	if err := ctx.Err(); err != nil {
		return Chapter{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chapters[chapterID]
	if !ok {
		return Chapter{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemory) ListChaptersByZone(ctx context.Context, zoneID int64) ([]Chapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.zones[zoneID]; !ok {
		return nil, ErrNotFound
	}
	var out []Chapter
	for _, c := range s.chapters {
		if c.ZoneID == zoneID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) ListChapterRolesByType(ctx context.Context, memberID int64, types []ChapterRoleType) ([]ChapterRoleAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, nil
	}
	want := make(map[ChapterRoleType]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ChapterRoleAssignment
	for _, a := range s.chRoles[memberID] {
		if _, ok := want[a.RoleType]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *InMemory) CheckExpiry(ctx context.Context, principalID string) (ExpiryStatus, error) {
	if err := ctx.Err(); err != nil {
		return ExpiryStatus{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUser[strings.TrimSpace(principalID)]
	if !ok {
		return ExpiryStatus{}, ErrNotFound
	}
	return StatusAt(s.profiles[id].MembershipExpiresAt, s.now(), s.grace), nil
}
