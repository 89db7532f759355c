// Package model provides the record types stored by the portfolio API and
// the structured-dump format used for backups.
package model

import "time"

// Project is a portfolio project entry.
type Project struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Technologies []string  `json:"technologies"`
	GithubURL    string    `json:"github_url,omitempty"`
	ExternalURL  string    `json:"external_url,omitempty"`
	// ImageURL predates ImageURLs and is kept for backward compatibility
	// with older dumps. Normalize folds it into ImageURLs.
	ImageURL     string    `json:"image_url,omitempty"`
	ImageURLs    []string  `json:"image_urls"`
	IsFeatured   bool      `json:"is_featured"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// Normalize applies legacy-field compatibility rules in place.
func (p *Project) Normalize() {
	if len(p.ImageURLs) == 0 && p.ImageURL != "" {
		p.ImageURLs = []string{p.ImageURL}
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
}

// Experience is a work-experience entry.
type Experience struct {
	ID               int64     `json:"id"`
	Company          string    `json:"company"`
	CompanyURL       string    `json:"company_url,omitempty"`
	Role             string    `json:"role"`
	DateRange        string    `json:"date_range"`
	Responsibilities []string  `json:"responsibilities"`
	DisplayOrder     int       `json:"display_order"`
	CreatedAt        time.Time `json:"created_at"`
}

// Skill is a named skill with an optional category. Names are unique across
// all skills.
type Skill struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// About is the single "about me" record. At most one exists; writes are
// upserts that refresh UpdatedAt.
type About struct {
	ID             int64     `json:"id"`
	Bio            string    `json:"bio"`
	CurrentCompany string    `json:"current_company,omitempty"`
	CurrentRole    string    `json:"current_role,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ContactSubmission is an append-only contact-form record. The only
// permitted mutation after creation is flipping EmailSent.
type ContactSubmission struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Subject     string     `json:"subject,omitempty"`
	Message     string     `json:"message"`
	IPAddress   string     `json:"ip_address,omitempty"`
	EmailSent   bool       `json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Health is the result of a store integrity probe.
type Health struct {
	Healthy bool   `json:"healthy"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DumpVersion is the current structured-dump format version.
const DumpVersion = 1

// Counter records the last issued sequence value for one record kind.
// Counters ride in the dump so identifier sequences survive a restore.
type Counter struct {
	Name string `json:"name"`
	Seq  int64  `json:"seq"`
}

// Sequence counter names, shared by both store backends and the dump format.
const (
	SeqProjects    = "projects"
	SeqExperience  = "experience"
	SeqSkills      = "skills"
	SeqAbout       = "about"
	SeqSubmissions = "contact_submissions"
)

// Collections holds the full record set of every kind.
type Collections struct {
	Projects    []Project           `json:"projects"`
	Experience  []Experience        `json:"experience"`
	Skills      []Skill             `json:"skills"`
	About       []About             `json:"about"`
	Submissions []ContactSubmission `json:"contact_submissions"`
	Counters    []Counter           `json:"counters"`
}

// Dump is the backup payload: one document containing every collection,
// tagged with a format version and a UTC creation timestamp.
type Dump struct {
	Version     int         `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	Collections Collections `json:"collections"`
}
