package main

import (
	"time"

	"chapterhub.org/internal/member"
)

// seedDemo loads the same demo principals as the SQL seed so dev tokens
// minted with cmd/devtoken work against either backend.
func seedDemo(s *member.InMemory) error {
	coastal := s.AddZone("Coastal Zone")
	highland := s.AddZone("Highland Zone")

	harbour, err := s.AddChapter(coastal.ID, "Harbour Chapter")
	if err != nil {
		return err
	}
	lighthouse, err := s.AddChapter(coastal.ID, "Lighthouse Chapter")
	if err != nil {
		return err
	}
	summit, err := s.AddChapter(highland.ID, "Summit Chapter")
	if err != nil {
		return err
	}

	officer, err := s.AddProfile("u-chapter-officer", "Chapter Officer", nil)
	if err != nil {
		return err
	}
	head, err := s.AddProfile("u-zone-head", "Zone Head", nil)
	if err != nil {
		return err
	}
	lapsedAt := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	lapsed, err := s.AddProfile("u-lapsed", "Lapsed Member", &lapsedAt)
	if err != nil {
		return err
	}
	if _, err := s.AddProfile("u-unassigned", "Unassigned Member", nil); err != nil {
		return err
	}

	for _, step := range []func() error{
		func() error { return s.AssignChapterRole(officer.ID, harbour.ID, member.ChapterOfficeBearer) },
		func() error { return s.AssignChapterRole(officer.ID, lighthouse.ID, member.ChapterDistrictCoordinator) },
		func() error { return s.AssignChapterRole(lapsed.ID, summit.ID, member.ChapterOfficeBearer) },
		func() error { return s.AssignZoneRole(head.ID, coastal.ID, member.ZoneHead) },
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
