package sqlitestore

import (
	"context"
	"fmt"

	"github.com/arkadas/portfolio-api/pkg/model"
)

// Dump exports every table plus the counters in one read transaction.
func (s *SQLiteStore) Dump(ctx context.Context) (*model.Dump, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	d := &model.Dump{
		Version:   model.DumpVersion,
		CreatedAt: nowUTC(),
		Collections: model.Collections{
			Projects:    []model.Project{},
			Experience:  []model.Experience{},
			Skills:      []model.Skill{},
			About:       []model.About{},
			Submissions: []model.ContactSubmission{},
			Counters:    []model.Counter{},
		},
	}

	rows, err := tx.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("dump projects: %w", err)
	}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		d.Collections.Projects = append(d.Collections.Projects, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(`SELECT ` + experienceColumns + ` FROM experience ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("dump experience: %w", err)
	}
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		d.Collections.Experience = append(d.Collections.Experience, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(`SELECT ` + skillColumns + ` FROM skills ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("dump skills: %w", err)
	}
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		d.Collections.Skills = append(d.Collections.Skills, sk)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(`SELECT id, bio, current_company, current_role, updated_at FROM about ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("dump about: %w", err)
	}
	for rows.Next() {
		var a model.About
		if err := rows.Scan(&a.ID, &a.Bio, &a.CurrentCompany, &a.CurrentRole, &a.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		d.Collections.About = append(d.Collections.About, a)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(`SELECT ` + submissionColumns + ` FROM contact_submissions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("dump submissions: %w", err)
	}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		d.Collections.Submissions = append(d.Collections.Submissions, sub)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(`SELECT name, seq FROM counters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("dump counters: %w", err)
	}
	for rows.Next() {
		var c model.Counter
		if err := rows.Scan(&c.Name, &c.Seq); err != nil {
			rows.Close()
			return nil, err
		}
		d.Collections.Counters = append(d.Collections.Counters, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	return d, tx.Commit()
}

// Load clears every table and bulk-inserts the dump inside one write
// transaction, counters included.
func (s *SQLiteStore) Load(ctx context.Context, d *model.Dump) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"projects", "experience", "skills", "about", "contact_submissions", "counters"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, p := range d.Collections.Projects {
		if err := insertProject(tx, p); err != nil {
			return fmt.Errorf("load project %d: %w", p.ID, err)
		}
	}
	for _, e := range d.Collections.Experience {
		if err := insertExperience(tx, e); err != nil {
			return fmt.Errorf("load experience %d: %w", e.ID, err)
		}
	}
	for _, sk := range d.Collections.Skills {
		if _, err := tx.Exec(`INSERT INTO skills (`+skillColumns+`) VALUES (?,?,?,?)`,
			sk.ID, sk.Name, sk.Category, sk.CreatedAt); err != nil {
			return fmt.Errorf("load skill %d: %w", sk.ID, err)
		}
	}
	for _, a := range d.Collections.About {
		if _, err := tx.Exec(
			`INSERT INTO about (id, bio, current_company, current_role, updated_at) VALUES (?,?,?,?,?)`,
			a.ID, a.Bio, a.CurrentCompany, a.CurrentRole, a.UpdatedAt); err != nil {
			return fmt.Errorf("load about %d: %w", a.ID, err)
		}
	}
	for _, sub := range d.Collections.Submissions {
		if err := insertSubmission(tx, sub); err != nil {
			return fmt.Errorf("load submission %d: %w", sub.ID, err)
		}
	}
	for _, c := range d.Collections.Counters {
		if _, err := tx.Exec(`INSERT INTO counters (name, seq) VALUES (?,?)`, c.Name, c.Seq); err != nil {
			return fmt.Errorf("load counter %s: %w", c.Name, err)
		}
	}

	return tx.Commit()
}
