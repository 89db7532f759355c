package apiserver

import (
	"fmt"
	"strings"

	"github.com/arkadas/portfolio-api/pkg/model"
)

type messageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type errorResponse struct {
	Detail  string `json:"detail"`
	Success bool   `json:"success"`
}

type projectCreateRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	GithubURL    string   `json:"github_url"`
	ExternalURL  string   `json:"external_url"`
	ImageURL     string   `json:"image_url"`
	ImageURLs    []string `json:"image_urls"`
	IsFeatured   bool     `json:"is_featured"`
	DisplayOrder int      `json:"display_order"`
}

func (req projectCreateRequest) validate() error {
	if err := requireLength("title", req.Title, 1, 200); err != nil {
		return err
	}
	if err := requireLength("description", req.Description, 1, 2000); err != nil {
		return err
	}
	if len(req.Technologies) == 0 {
		return fmt.Errorf("technologies must contain at least one entry")
	}
	return nil
}

func (req projectCreateRequest) record() model.Project {
	p := model.Project{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Technologies: req.Technologies,
		GithubURL:    req.GithubURL,
		ExternalURL:  req.ExternalURL,
		ImageURL:     req.ImageURL,
		ImageURLs:    req.ImageURLs,
		IsFeatured:   req.IsFeatured,
		DisplayOrder: req.DisplayOrder,
	}
	p.Normalize()
	return p
}

func validateProjectPatch(p model.ProjectPatch) error {
	if p.Title != nil {
		if err := requireLength("title", *p.Title, 1, 200); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := requireLength("description", *p.Description, 1, 2000); err != nil {
			return err
		}
	}
	if p.Technologies != nil && len(*p.Technologies) == 0 {
		return fmt.Errorf("technologies must contain at least one entry")
	}
	return nil
}

type experienceCreateRequest struct {
	Company          string   `json:"company"`
	CompanyURL       string   `json:"company_url"`
	Role             string   `json:"role"`
	DateRange        string   `json:"date_range"`
	Responsibilities []string `json:"responsibilities"`
	DisplayOrder     int      `json:"display_order"`
}

func (req experienceCreateRequest) validate() error {
	if err := requireLength("company", req.Company, 1, 200); err != nil {
		return err
	}
	if err := requireLength("role", req.Role, 1, 200); err != nil {
		return err
	}
	if err := requireLength("date_range", req.DateRange, 1, 100); err != nil {
		return err
	}
	if len(req.Responsibilities) == 0 {
		return fmt.Errorf("responsibilities must contain at least one entry")
	}
	return nil
}

func (req experienceCreateRequest) record() model.Experience {
	return model.Experience{
		Company:          strings.TrimSpace(req.Company),
		CompanyURL:       req.CompanyURL,
		Role:             req.Role,
		DateRange:        req.DateRange,
		Responsibilities: req.Responsibilities,
		DisplayOrder:     req.DisplayOrder,
	}
}

func validateExperiencePatch(p model.ExperiencePatch) error {
	if p.Company != nil {
		if err := requireLength("company", *p.Company, 1, 200); err != nil {
			return err
		}
	}
	if p.Role != nil {
		if err := requireLength("role", *p.Role, 1, 200); err != nil {
			return err
		}
	}
	if p.DateRange != nil {
		if err := requireLength("date_range", *p.DateRange, 1, 100); err != nil {
			return err
		}
	}
	return nil
}

type skillCreateRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (req skillCreateRequest) validate() error {
	if err := requireLength("name", req.Name, 1, 100); err != nil {
		return err
	}
	return requireLength("category", req.Category, 0, 100)
}

func validateSkillPatch(p model.SkillPatch) error {
	if p.Name != nil {
		if err := requireLength("name", *p.Name, 1, 100); err != nil {
			return err
		}
	}
	if p.Category != nil {
		return requireLength("category", *p.Category, 0, 100)
	}
	return nil
}

type aboutRequest struct {
	Bio            string `json:"bio"`
	CurrentCompany string `json:"current_company"`
	CurrentRole    string `json:"current_role"`
}

func (req aboutRequest) validate() error {
	if err := requireLength("bio", req.Bio, 1, 5000); err != nil {
		return err
	}
	if err := requireLength("current_company", req.CurrentCompany, 0, 200); err != nil {
		return err
	}
	return requireLength("current_role", req.CurrentRole, 0, 200)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	// Honeypot must stay empty; bots filling every field trip it.
	Honeypot string `json:"honeypot"`
}

func (req contactRequest) validate() error {
	if req.Honeypot != "" {
		return fmt.Errorf("invalid submission")
	}
	if err := requireLength("name", req.Name, 2, 100); err != nil {
		return err
	}
	if !validEmail(req.Email) {
		return fmt.Errorf("email is not a valid address")
	}
	if err := requireLength("subject", req.Subject, 0, 200); err != nil {
		return err
	}
	return requireLength("message", req.Message, 10, 2000)
}

func requireLength(field, value string, min, max int) error {
	n := len(strings.TrimSpace(value))
	if n < min {
		if min == 1 {
			return fmt.Errorf("%s must not be empty", field)
		}
		return fmt.Errorf("%s must be at least %d characters", field, min)
	}
	if n > max {
		return fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return nil
}

// validEmail applies a structural check, not full RFC 5322 parsing.
func validEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	if at < 1 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	if strings.ContainsAny(s, " \t\r\n") || strings.Contains(s, "..") {
		return false
	}
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
