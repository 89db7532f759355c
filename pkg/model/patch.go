package model

// Patch types carry optional fields for partial updates. Only non-nil
// fields are applied; an all-nil patch is a no-op. Both store backends use
// Apply so partial-update semantics live in one place.

// ProjectPatch is a partial update for a Project.
type ProjectPatch struct {
	Title        *string   `json:"title,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Technologies *[]string `json:"technologies,omitempty"`
	GithubURL    *string   `json:"github_url,omitempty"`
	ExternalURL  *string   `json:"external_url,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	ImageURLs    *[]string `json:"image_urls,omitempty"`
	IsFeatured   *bool     `json:"is_featured,omitempty"`
	DisplayOrder *int      `json:"display_order,omitempty"`
}

// IsZero reports whether no fields are set.
func (p ProjectPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Technologies == nil &&
		p.GithubURL == nil && p.ExternalURL == nil && p.ImageURL == nil &&
		p.ImageURLs == nil && p.IsFeatured == nil && p.DisplayOrder == nil
}

// Apply copies the set fields onto rec, leaving the rest untouched.
func (p ProjectPatch) Apply(rec *Project) {
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Description != nil {
		rec.Description = *p.Description
	}
	if p.Technologies != nil {
		rec.Technologies = *p.Technologies
	}
	if p.GithubURL != nil {
		rec.GithubURL = *p.GithubURL
	}
	if p.ExternalURL != nil {
		rec.ExternalURL = *p.ExternalURL
	}
	if p.ImageURL != nil {
		rec.ImageURL = *p.ImageURL
	}
	if p.ImageURLs != nil {
		rec.ImageURLs = *p.ImageURLs
	}
	if p.IsFeatured != nil {
		rec.IsFeatured = *p.IsFeatured
	}
	if p.DisplayOrder != nil {
		rec.DisplayOrder = *p.DisplayOrder
	}
	rec.Normalize()
}

// ExperiencePatch is a partial update for an Experience.
type ExperiencePatch struct {
	Company          *string   `json:"company,omitempty"`
	CompanyURL       *string   `json:"company_url,omitempty"`
	Role             *string   `json:"role,omitempty"`
	DateRange        *string   `json:"date_range,omitempty"`
	Responsibilities *[]string `json:"responsibilities,omitempty"`
	DisplayOrder     *int      `json:"display_order,omitempty"`
}

func (p ExperiencePatch) IsZero() bool {
	return p.Company == nil && p.CompanyURL == nil && p.Role == nil &&
		p.DateRange == nil && p.Responsibilities == nil && p.DisplayOrder == nil
}

func (p ExperiencePatch) Apply(rec *Experience) {
	if p.Company != nil {
		rec.Company = *p.Company
	}
	if p.CompanyURL != nil {
		rec.CompanyURL = *p.CompanyURL
	}
	if p.Role != nil {
		rec.Role = *p.Role
	}
	if p.DateRange != nil {
		rec.DateRange = *p.DateRange
	}
	if p.Responsibilities != nil {
		rec.Responsibilities = *p.Responsibilities
	}
	if p.DisplayOrder != nil {
		rec.DisplayOrder = *p.DisplayOrder
	}
}

// SkillPatch is a partial update for a Skill.
type SkillPatch struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
}

func (p SkillPatch) IsZero() bool {
	return p.Name == nil && p.Category == nil
}

func (p SkillPatch) Apply(rec *Skill) {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Category != nil {
		rec.Category = *p.Category
	}
}
