// Package seed fills an empty store with sample portfolio content so a
// fresh deployment has something to show.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/pkg/model"
)

// Empty reports whether the store holds no projects. Used to decide whether
// auto-seeding on startup is safe.
func Empty(ctx context.Context, st store.Store) (bool, error) {
	projects, err := st.ListProjects(ctx, store.ProjectFilter{})
	if err != nil {
		return false, err
	}
	return len(projects) == 0, nil
}

// Result summarizes what Apply inserted.
type Result struct {
	Projects   int `json:"projects"`
	Experience int `json:"experience"`
	Skills     int `json:"skills"`
	About      int `json:"about"`
}

// Apply inserts the sample data set. Skills that already exist are skipped,
// so Apply is safe to run more than once.
func Apply(ctx context.Context, st store.Store, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.Default()
	}
	var res Result

	for _, p := range sampleProjects() {
		if _, err := st.CreateProject(ctx, p); err != nil {
			return res, fmt.Errorf("seed project %q: %w", p.Title, err)
		}
		res.Projects++
	}
	for _, e := range sampleExperience() {
		if _, err := st.CreateExperience(ctx, e); err != nil {
			return res, fmt.Errorf("seed experience %q: %w", e.Company, err)
		}
		res.Experience++
	}
	for _, s := range sampleSkills() {
		_, err := st.CreateSkill(ctx, s)
		if errors.Is(err, store.ErrSkillExists) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed skill %q: %w", s.Name, err)
		}
		res.Skills++
	}
	if _, err := st.UpsertAbout(ctx, sampleAbout()); err != nil {
		return res, fmt.Errorf("seed about: %w", err)
	}
	res.About = 1

	log.Info("sample data seeded",
		"projects", res.Projects, "experience", res.Experience, "skills", res.Skills)
	return res, nil
}

func sampleProjects() []model.Project {
	return []model.Project{
		{
			Title:        "Portfolio Website",
			Description:  "A modern, responsive portfolio website with an admin panel for content management. Built with FastAPI backend and vanilla JavaScript frontend.",
			Technologies: []string{"Python", "FastAPI", "JavaScript", "SQLite", "HTML/CSS"},
			GithubURL:    "https://github.com/yourusername/portfolio",
			IsFeatured:   true,
			DisplayOrder: 1,
		},
		{
			Title:        "E-Commerce Platform",
			Description:  "Full-stack e-commerce solution with payment integration, inventory management, and order tracking.",
			Technologies: []string{"React", "Node.js", "MongoDB", "Stripe", "Redux"},
			GithubURL:    "https://github.com/yourusername/ecommerce",
			ExternalURL:  "https://demo-shop.example.com",
			IsFeatured:   true,
			DisplayOrder: 2,
		},
		{
			Title:        "Task Management App",
			Description:  "Collaborative task management application with real-time updates, team collaboration, and progress tracking.",
			Technologies: []string{"Vue.js", "Firebase", "Tailwind CSS", "TypeScript"},
			GithubURL:    "https://github.com/yourusername/taskapp",
			DisplayOrder: 3,
		},
		{
			Title:        "Weather Dashboard",
			Description:  "Real-time weather dashboard with forecasts, historical data visualization, and location-based alerts.",
			Technologies: []string{"React", "Chart.js", "OpenWeather API", "Material-UI"},
			GithubURL:    "https://github.com/yourusername/weather",
			ExternalURL:  "https://weather-dash.example.com",
			DisplayOrder: 4,
		},
		{
			Title:        "Blog CMS",
			Description:  "Content management system for bloggers with markdown support, SEO optimization, and analytics.",
			Technologies: []string{"Django", "PostgreSQL", "Redis", "Docker"},
			GithubURL:    "https://github.com/yourusername/blog-cms",
			IsFeatured:   true,
			DisplayOrder: 5,
		},
		{
			Title:        "Fitness Tracker",
			Description:  "Mobile-first fitness tracking app with workout logging, progress charts, and goal setting.",
			Technologies: []string{"React Native", "Express", "MongoDB", "JWT"},
			GithubURL:    "https://github.com/yourusername/fitness",
			DisplayOrder: 6,
		},
	}
}

func sampleExperience() []model.Experience {
	return []model.Experience{
		{
			Company:    "Tech Solutions Inc.",
			CompanyURL: "https://techsolutions.example.com",
			Role:       "Senior Full Stack Developer",
			DateRange:  "Jan 2023 - Present",
			Responsibilities: []string{
				"Led development of microservices architecture serving 1M+ users",
				"Mentored team of 5 junior developers",
				"Implemented CI/CD pipelines reducing deployment time by 60%",
				"Architected scalable solutions using AWS and Docker",
			},
			DisplayOrder: 1,
		},
		{
			Company:    "StartUp Ventures",
			CompanyURL: "https://startup.example.com",
			Role:       "Full Stack Developer",
			DateRange:  "Mar 2021 - Dec 2022",
			Responsibilities: []string{
				"Built RESTful APIs using Node.js and Express",
				"Developed responsive React applications",
				"Integrated third-party payment systems",
				"Optimized database queries improving performance by 40%",
			},
			DisplayOrder: 2,
		},
		{
			Company:    "Digital Agency Co.",
			CompanyURL: "https://digitalagency.example.com",
			Role:       "Frontend Developer",
			DateRange:  "Jun 2019 - Feb 2021",
			Responsibilities: []string{
				"Created pixel-perfect responsive websites for 20+ clients",
				"Collaborated with designers using Figma and Adobe XD",
				"Implemented SEO best practices",
				"Maintained and updated legacy codebases",
			},
			DisplayOrder: 3,
		},
	}
}

func sampleSkills() []model.Skill {
	type entry struct{ name, category string }
	entries := []entry{
		{"JavaScript", "Frontend"},
		{"React", "Frontend"},
		{"Vue.js", "Frontend"},
		{"TypeScript", "Frontend"},
		{"HTML/CSS", "Frontend"},
		{"Tailwind CSS", "Frontend"},
		{"Python", "Backend"},
		{"Node.js", "Backend"},
		{"FastAPI", "Backend"},
		{"Django", "Backend"},
		{"Express", "Backend"},
		{"RESTful APIs", "Backend"},
		{"PostgreSQL", "Database"},
		{"MongoDB", "Database"},
		{"SQLite", "Database"},
		{"Redis", "Database"},
		{"Docker", "DevOps"},
		{"AWS", "DevOps"},
		{"CI/CD", "DevOps"},
		{"Git", "DevOps"},
		{"VS Code", "Tools"},
		{"Postman", "Tools"},
		{"Figma", "Tools"},
	}
	skills := make([]model.Skill, 0, len(entries))
	for _, e := range entries {
		skills = append(skills, model.Skill{Name: e.name, Category: e.category})
	}
	return skills
}

func sampleAbout() model.About {
	return model.About{
		Bio:            "Passionate full-stack developer with 5+ years of experience building scalable web applications. Specialized in modern JavaScript frameworks and Python backend development. Love creating beautiful, user-friendly interfaces and solving complex problems.",
		CurrentCompany: "Tech Solutions Inc.",
		CurrentRole:    "Senior Full Stack Developer",
	}
}
