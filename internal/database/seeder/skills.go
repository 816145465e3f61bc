// Package seeder loads the default volunteer skill catalog. Idempotent:
// names already present are left untouched.
package seeder

import (
	"context"
	"fmt"
	"log"

	"volunteer-match/internal/repository"
)

type catalogEntry struct {
	name     string
	category string
}

var defaultCatalog = []catalogEntry{
	{"First Aid", "Health & Safety"},
	{"CPR Certified", "Health & Safety"},
	{"Food Handling", "Health & Safety"},
	{"Event Planning", "Coordination"},
	{"Volunteer Coordination", "Coordination"},
	{"Logistics", "Coordination"},
	{"Fundraising", "Outreach"},
	{"Public Speaking", "Outreach"},
	{"Social Media", "Outreach"},
	{"Translation", "Communication"},
	{"Sign Language", "Communication"},
	{"Writing & Editing", "Communication"},
	{"Teaching", "Education"},
	{"Tutoring", "Education"},
	{"Childcare", "Education"},
	{"Elder Care", "Care"},
	{"Counseling", "Care"},
	{"Cooking", "Practical"},
	{"Carpentry", "Practical"},
	{"Gardening", "Practical"},
	{"Driving", "Practical"},
	{"Heavy Lifting", "Practical"},
	{"IT Support", "Technical"},
	{"Web Development", "Technical"},
	{"Data Entry", "Technical"},
	{"Graphic Design", "Technical"},
	{"Photography", "Technical"},
	{"Accounting", "Administrative"},
	{"Legal Aid", "Administrative"},
	{"Grant Writing", "Administrative"},
}

func SeedSkills(ctx context.Context, skills repository.SkillRepository, logger *log.Logger) error {
	for _, entry := range defaultCatalog {
		if _, err := skills.EnsureByName(ctx, repository.Skill{
			Name:     entry.name,
			Category: entry.category,
		}); err != nil {
			return fmt.Errorf("seed skill %q: %w", entry.name, err)
		}
	}
	if logger != nil {
		logger.Printf("[Seeder] Skill catalog ensured entries=%d", len(defaultCatalog))
	}
	return nil
}
