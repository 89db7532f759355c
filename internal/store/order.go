package store

import (
	"sort"
	"strings"

	"github.com/arkadas/portfolio-api/pkg/model"
)

// Documented list orderings. The relational backend expresses these as
// ORDER BY clauses; the document backend sorts in memory with the same keys.

// SortProjects orders by (display_order asc, created_at desc), id as the
// final tiebreaker so the order is stable.
func SortProjects(list []model.Project) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].DisplayOrder != list[j].DisplayOrder {
			return list[i].DisplayOrder < list[j].DisplayOrder
		}
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

// SortExperience orders by (display_order asc, created_at desc).
func SortExperience(list []model.Experience) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].DisplayOrder != list[j].DisplayOrder {
			return list[i].DisplayOrder < list[j].DisplayOrder
		}
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

// SortSkills orders by (category asc, name asc), case-insensitive.
func SortSkills(list []model.Skill) {
	sort.SliceStable(list, func(i, j int) bool {
		ci, cj := strings.ToLower(list[i].Category), strings.ToLower(list[j].Category)
		if ci != cj {
			return ci < cj
		}
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
}

// SortSubmissions orders by created_at desc, newest first.
func SortSubmissions(list []model.ContactSubmission) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}
