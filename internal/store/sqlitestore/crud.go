package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/pkg/model"
)

// List-valued fields are persisted as JSON text.

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(data), nil
}

func unmarshalList(text string) ([]string, error) {
	if text == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, fmt.Errorf("unmarshal list: %w", err)
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ---- projects ----

const projectColumns = `id, title, description, technologies, github_url, external_url, image_url, image_urls, is_featured, display_order, created_at`

func scanProject(sc rowScanner) (model.Project, error) {
	var p model.Project
	var tech, urls string
	err := sc.Scan(&p.ID, &p.Title, &p.Description, &tech, &p.GithubURL,
		&p.ExternalURL, &p.ImageURL, &urls, &p.IsFeatured, &p.DisplayOrder, &p.CreatedAt)
	if err != nil {
		return model.Project{}, err
	}
	if p.Technologies, err = unmarshalList(tech); err != nil {
		return model.Project{}, err
	}
	if p.ImageURLs, err = unmarshalList(urls); err != nil {
		return model.Project{}, err
	}
	p.Normalize()
	return p, nil
}

func insertProject(tx *sql.Tx, p model.Project) error {
	tech, err := marshalList(p.Technologies)
	if err != nil {
		return err
	}
	urls, err := marshalList(p.ImageURLs)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO projects (`+projectColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Title, p.Description, tech, p.GithubURL, p.ExternalURL,
		p.ImageURL, urls, p.IsFeatured, p.DisplayOrder, p.CreatedAt)
	return err
}

func (s *SQLiteStore) CreateProject(ctx context.Context, p model.Project) (int64, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := nextSeq(tx, model.SeqProjects)
	if err != nil {
		return 0, err
	}
	p.ID = id
	p.CreatedAt = nowUTC()
	p.Normalize()
	if err := insertProject(tx, p); err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	return id, tx.Commit()
}

func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, f store.ProjectFilter) ([]model.Project, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + projectColumns + ` FROM projects`
	var args []any
	if f.FeaturedOnly {
		query += ` WHERE is_featured = ?`
		args = append(args, true)
	}
	query += ` ORDER BY display_order ASC, created_at DESC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	list := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, id int64, patch model.ProjectPatch) (bool, error) {
	if patch.IsZero() {
		return false, nil
	}
	db, err := s.handle()
	if err != nil {
		return false, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	patch.Apply(&p)
	tech, err := marshalList(p.Technologies)
	if err != nil {
		return false, err
	}
	urls, err := marshalList(p.ImageURLs)
	if err != nil {
		return false, err
	}
	_, err = tx.Exec(
		`UPDATE projects SET title=?, description=?, technologies=?, github_url=?,
		 external_url=?, image_url=?, image_urls=?, is_featured=?, display_order=?
		 WHERE id=?`,
		p.Title, p.Description, tech, p.GithubURL, p.ExternalURL, p.ImageURL,
		urls, p.IsFeatured, p.DisplayOrder, id)
	if err != nil {
		return false, fmt.Errorf("update project %d: %w", id, err)
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "projects", id)
}

func (s *SQLiteStore) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	db, err := s.handle()
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---- experience ----

const experienceColumns = `id, company, company_url, role, date_range, responsibilities, display_order, created_at`

func scanExperience(sc rowScanner) (model.Experience, error) {
	var e model.Experience
	var resp string
	err := sc.Scan(&e.ID, &e.Company, &e.CompanyURL, &e.Role, &e.DateRange,
		&resp, &e.DisplayOrder, &e.CreatedAt)
	if err != nil {
		return model.Experience{}, err
	}
	if e.Responsibilities, err = unmarshalList(resp); err != nil {
		return model.Experience{}, err
	}
	return e, nil
}

func insertExperience(tx *sql.Tx, e model.Experience) error {
	resp, err := marshalList(e.Responsibilities)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO experience (`+experienceColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		e.ID, e.Company, e.CompanyURL, e.Role, e.DateRange, resp, e.DisplayOrder, e.CreatedAt)
	return err
}

func (s *SQLiteStore) CreateExperience(ctx context.Context, e model.Experience) (int64, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := nextSeq(tx, model.SeqExperience)
	if err != nil {
		return 0, err
	}
	e.ID = id
	e.CreatedAt = nowUTC()
	if err := insertExperience(tx, e); err != nil {
		return 0, fmt.Errorf("insert experience: %w", err)
	}
	return id, tx.Commit()
}

func (s *SQLiteStore) GetExperience(ctx context.Context, id int64) (*model.Experience, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `SELECT `+experienceColumns+` FROM experience WHERE id = ?`, id)
	e, err := scanExperience(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get experience %d: %w", id, err)
	}
	return &e, nil
}

func (s *SQLiteStore) ListExperience(ctx context.Context) ([]model.Experience, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+experienceColumns+` FROM experience ORDER BY display_order ASC, created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list experience: %w", err)
	}
	defer rows.Close()

	list := []model.Experience{}
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) UpdateExperience(ctx context.Context, id int64, patch model.ExperiencePatch) (bool, error) {
	if patch.IsZero() {
		return false, nil
	}
	db, err := s.handle()
	if err != nil {
		return false, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+experienceColumns+` FROM experience WHERE id = ?`, id)
	e, err := scanExperience(row)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	patch.Apply(&e)
	resp, err := marshalList(e.Responsibilities)
	if err != nil {
		return false, err
	}
	_, err = tx.Exec(
		`UPDATE experience SET company=?, company_url=?, role=?, date_range=?,
		 responsibilities=?, display_order=? WHERE id=?`,
		e.Company, e.CompanyURL, e.Role, e.DateRange, resp, e.DisplayOrder, id)
	if err != nil {
		return false, fmt.Errorf("update experience %d: %w", id, err)
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) DeleteExperience(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "experience", id)
}

// ---- skills ----

const skillColumns = `id, name, category, created_at`

func scanSkill(sc rowScanner) (model.Skill, error) {
	var sk model.Skill
	err := sc.Scan(&sk.ID, &sk.Name, &sk.Category, &sk.CreatedAt)
	if err != nil {
		return model.Skill{}, err
	}
	return sk, nil
}

func (s *SQLiteStore) CreateSkill(ctx context.Context, sk model.Skill) (int64, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := nextSeq(tx, model.SeqSkills)
	if err != nil {
		return 0, err
	}
	sk.ID = id
	sk.CreatedAt = nowUTC()
	_, err = tx.Exec(`INSERT INTO skills (`+skillColumns+`) VALUES (?,?,?,?)`,
		sk.ID, sk.Name, sk.Category, sk.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrSkillExists
		}
		return 0, fmt.Errorf("insert skill: %w", err)
	}
	return id, tx.Commit()
}

func (s *SQLiteStore) GetSkill(ctx context.Context, id int64) (*model.Skill, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = ?`, id)
	sk, err := scanSkill(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get skill %d: %w", id, err)
	}
	return &sk, nil
}

func (s *SQLiteStore) ListSkills(ctx context.Context) ([]model.Skill, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+skillColumns+` FROM skills ORDER BY category COLLATE NOCASE ASC, name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	list := []model.Skill{}
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, sk)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) UpdateSkill(ctx context.Context, id int64, patch model.SkillPatch) (bool, error) {
	if patch.IsZero() {
		return false, nil
	}
	db, err := s.handle()
	if err != nil {
		return false, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+skillColumns+` FROM skills WHERE id = ?`, id)
	sk, err := scanSkill(row)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	patch.Apply(&sk)
	_, err = tx.Exec(`UPDATE skills SET name=?, category=? WHERE id=?`, sk.Name, sk.Category, id)
	if err != nil {
		if isUniqueViolation(err) {
			return false, store.ErrSkillExists
		}
		return false, fmt.Errorf("update skill %d: %w", id, err)
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) DeleteSkill(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "skills", id)
}

// ---- about ----

func (s *SQLiteStore) UpsertAbout(ctx context.Context, a model.About) (int64, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`SELECT id FROM about LIMIT 1`).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id, err = nextSeq(tx, model.SeqAbout)
		if err != nil {
			return 0, err
		}
		_, err = tx.Exec(
			`INSERT INTO about (id, bio, current_company, current_role, updated_at) VALUES (?,?,?,?,?)`,
			id, a.Bio, a.CurrentCompany, a.CurrentRole, nowUTC())
	case err != nil:
		return 0, err
	default:
		_, err = tx.Exec(
			`UPDATE about SET bio=?, current_company=?, current_role=?, updated_at=? WHERE id=?`,
			a.Bio, a.CurrentCompany, a.CurrentRole, nowUTC(), id)
	}
	if err != nil {
		return 0, fmt.Errorf("upsert about: %w", err)
	}
	return id, tx.Commit()
}

func (s *SQLiteStore) GetAbout(ctx context.Context) (*model.About, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	var a model.About
	err = db.QueryRowContext(ctx,
		`SELECT id, bio, current_company, current_role, updated_at FROM about LIMIT 1`).
		Scan(&a.ID, &a.Bio, &a.CurrentCompany, &a.CurrentRole, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get about: %w", err)
	}
	return &a, nil
}

// ---- contact submissions ----

const submissionColumns = `id, name, email, subject, message, ip_address, email_sent, email_sent_at, created_at`

func scanSubmission(sc rowScanner) (model.ContactSubmission, error) {
	var sub model.ContactSubmission
	var sentAt sql.NullTime
	err := sc.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Subject, &sub.Message,
		&sub.IPAddress, &sub.EmailSent, &sentAt, &sub.CreatedAt)
	if err != nil {
		return model.ContactSubmission{}, err
	}
	if sentAt.Valid {
		t := sentAt.Time
		sub.EmailSentAt = &t
	}
	return sub, nil
}

func insertSubmission(tx *sql.Tx, sub model.ContactSubmission) error {
	var sentAt any
	if sub.EmailSentAt != nil {
		sentAt = *sub.EmailSentAt
	}
	_, err := tx.Exec(
		`INSERT INTO contact_submissions (`+submissionColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		sub.ID, sub.Name, sub.Email, sub.Subject, sub.Message, sub.IPAddress,
		sub.EmailSent, sentAt, sub.CreatedAt)
	return err
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub model.ContactSubmission) (int64, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := nextSeq(tx, model.SeqSubmissions)
	if err != nil {
		return 0, err
	}
	sub.ID = id
	sub.EmailSent = false
	sub.EmailSentAt = nil
	sub.CreatedAt = nowUTC()
	if err := insertSubmission(tx, sub); err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	return id, tx.Commit()
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context) ([]model.ContactSubmission, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM contact_submissions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	list := []model.ContactSubmission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, sub)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) DeleteSubmission(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "contact_submissions", id)
}

func (s *SQLiteStore) MarkEmailSent(ctx context.Context, id int64) (bool, error) {
	db, err := s.handle()
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE contact_submissions SET email_sent = 1, email_sent_at = ? WHERE id = ?`,
		nowUTC(), id)
	if err != nil {
		return false, fmt.Errorf("mark email sent %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) CountRecentByIP(ctx context.Context, ip string, window time.Duration) (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	cutoff := nowUTC().Add(-window)
	var count int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contact_submissions WHERE ip_address = ? AND created_at > ?`,
		ip, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent by ip: %w", err)
	}
	return count, nil
}
