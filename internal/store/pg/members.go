package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"chapterhub.org/internal/member"
)

var (
	_ member.Store         = (*Store)(nil)
	_ member.ExpiryChecker = (*Store)(nil)
)

func (s *Store) FindProfileByPrincipal(ctx context.Context, principalID string) (member.Profile, error) {
	if s.db == nil {
		return member.Profile{}, errNoDB
	}
	var (
		p       member.Profile
		expires sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		select id, principal_id, full_name, membership_expires_at
		from members
		where principal_id = $1
	`, principalID).Scan(&p.ID, &p.PrincipalID, &p.Name, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return member.Profile{}, member.ErrNotFound
	}
	if err != nil {
		return member.Profile{}, wrapErr("load member", err)
	}
	if expires.Valid {
		t := expires.Time.UTC()
		p.MembershipExpiresAt = &t
	}

	if p.ChapterRoles, err = s.chapterRoles(ctx, `
		select cr.member_id, cr.chapter_id, c.name, cr.role_type
		from chapter_role_assignments cr
		join chapters c on c.id = cr.chapter_id
		where cr.member_id = $1
		order by cr.chapter_id, cr.role_type
	`, p.ID); err != nil {
		return member.Profile{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select zr.member_id, zr.zone_id, z.name, zr.role_type
		from zone_role_assignments zr
		join zones z on z.id = zr.zone_id
		where zr.member_id = $1
		order by zr.zone_id, zr.role_type
	`, p.ID)
	if err != nil {
		return member.Profile{}, wrapErr("load zone roles", err)
	}
	defer rows.Close()

	p.ZoneRoles = []member.ZoneRoleAssignment{}
	for rows.Next() {
		var (
			a   member.ZoneRoleAssignment
			raw string
		)
		if err := rows.Scan(&a.MemberID, &a.ZoneID, &a.ZoneName, &raw); err != nil {
			return member.Profile{}, err
		}
		t, ok := member.ParseZoneRoleType(raw)
		if !ok {
			return member.Profile{}, fmt.Errorf("zone role assignment for member %d: unknown role type %q", a.MemberID, raw)
		}
		a.RoleType = t
		p.ZoneRoles = append(p.ZoneRoles, a)
	}
	if err := rows.Err(); err != nil {
		return member.Profile{}, err
	}
	return p, nil
}

func (s *Store) ListChapterRolesByType(ctx context.Context, memberID int64, types []member.ChapterRoleType) ([]member.ChapterRoleAssignment, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	if len(types) == 0 {
		return nil, nil
	}
	var (
		placeholders []string
		args         = []any{memberID}
	)
	for i, t := range types {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, string(t))
	}
	query := fmt.Sprintf(`
		select cr.member_id, cr.chapter_id, c.name, cr.role_type
		from chapter_role_assignments cr
		join chapters c on c.id = cr.chapter_id
		where cr.member_id = $1 and cr.role_type in (%s)
		order by cr.chapter_id, cr.role_type
	`, strings.Join(placeholders, ", "))
	return s.chapterRoles(ctx, query, args...)
}

func (s *Store) chapterRoles(ctx context.Context, query string, args ...any) ([]member.ChapterRoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("load chapter roles", err)
	}
	defer rows.Close()

	result := []member.ChapterRoleAssignment{}
	for rows.Next() {
		var (
			a   member.ChapterRoleAssignment
			raw string
		)
		if err := rows.Scan(&a.MemberID, &a.ChapterID, &a.ChapterName, &raw); err != nil {
			return nil, err
		}
		t, ok := member.ParseChapterRoleType(raw)
		if !ok {
			return nil, fmt.Errorf("chapter role assignment for member %d: unknown role type %q", a.MemberID, raw)
		}
		a.RoleType = t
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) FindZone(ctx context.Context, zoneID int64) (member.Zone, error) {
	if s.db == nil {
		return member.Zone{}, errNoDB
	}
	var z member.Zone
	err := s.db.QueryRowContext(ctx, `select id, name from zones where id = $1`, zoneID).Scan(&z.ID, &z.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return member.Zone{}, member.ErrNotFound
	}
	if err != nil {
		return member.Zone{}, wrapErr("load zone", err)
	}
	return z, nil
}

func (s *Store) FindChapter(ctx context.Context, chapterID int64) (member.Chapter, error) {
	if s.db == nil {
		return member.Chapter{}, errNoDB
	}
	var c member.Chapter
	err := s.db.QueryRowContext(ctx, `select id, zone_id, name from chapters where id = $1`, chapterID).
		Scan(&c.ID, &c.ZoneID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return member.Chapter{}, member.ErrNotFound
	}
	if err != nil {
		return member.Chapter{}, wrapErr("load chapter", err)
	}
	return c, nil
}

func (s *Store) ListChaptersByZone(ctx context.Context, zoneID int64) ([]member.Chapter, error) {
	if _, err := s.FindZone(ctx, zoneID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, zone_id, name
		from chapters
		where zone_id = $1
		order by id
	`, zoneID)
	if err != nil {
		return nil, wrapErr("list chapters", err)
	}
	defer rows.Close()

	var result []member.Chapter
	for rows.Next() {
		var c member.Chapter
		if err := rows.Scan(&c.ID, &c.ZoneID, &c.Name); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CheckExpiry(ctx context.Context, principalID string) (member.ExpiryStatus, error) {
	if s.db == nil {
		return member.ExpiryStatus{}, errNoDB
	}
	var expires sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		select membership_expires_at from members where principal_id = $1
	`, principalID).Scan(&expires)
	if errors.Is(err, sql.ErrNoRows) {
		return member.ExpiryStatus{}, member.ErrNotFound
	}
	if err != nil {
		return member.ExpiryStatus{}, wrapErr("load membership expiry", err)
	}
	if !expires.Valid {
		return member.StatusAt(nil, s.now(), s.grace), nil
	}
	return member.StatusAt(&expires.Time, s.now(), s.grace), nil
}
