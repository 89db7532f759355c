package badgerstore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/pkg/model"
)

func skillNameKey(name string) string {
	return prefixSkillName + strings.ToLower(strings.TrimSpace(name))
}

// ---- projects ----

func (s *BadgerStore) CreateProject(ctx context.Context, p model.Project) (int64, error) {
	var id int64
	err := s.update(func(txn *badger.Txn) error {
		n, err := nextSeq(txn, model.SeqProjects)
		if err != nil {
			return err
		}
		id = n
		p.ID = n
		p.CreatedAt = nowUTC()
		p.Normalize()
		return putJSON(txn, recordKey(prefixProject, n), p)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BadgerStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, recordKey(prefixProject, id), &p)
	})
	if err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func (s *BadgerStore) ListProjects(ctx context.Context, f store.ProjectFilter) ([]model.Project, error) {
	list := []model.Project{}
	err := s.iterate(prefixProject, func(val []byte) error {
		var p model.Project
		if err := unmarshalRecord(val, &p); err != nil {
			return err
		}
		p.Normalize()
		if f.FeaturedOnly && !p.IsFeatured {
			return nil
		}
		list = append(list, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	store.SortProjects(list)
	return list, nil
}

func (s *BadgerStore) UpdateProject(ctx context.Context, id int64, patch model.ProjectPatch) (bool, error) {
	if patch.IsZero() {
		return false, nil
	}
	modified := false
	err := s.update(func(txn *badger.Txn) error {
		modified = false
		var p model.Project
		if err := getJSON(txn, recordKey(prefixProject, id), &p); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		patch.Apply(&p)
		modified = true
		return putJSON(txn, recordKey(prefixProject, id), p)
	})
	return modified, err
}

func (s *BadgerStore) DeleteProject(ctx context.Context, id int64) (bool, error) {
	return s.deleteRecord(recordKey(prefixProject, id))
}

// deleteRecord removes key if present and reports whether it existed.
func (s *BadgerStore) deleteRecord(key string) (bool, error) {
	existed := false
	err := s.update(func(txn *badger.Txn) error {
		existed = false
		_, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete([]byte(key))
	})
	return existed, err
}

// ---- experience ----

func (s *BadgerStore) CreateExperience(ctx context.Context, e model.Experience) (int64, error) {
	var id int64
	err := s.update(func(txn *badger.Txn) error {
		n, err := nextSeq(txn, model.SeqExperience)
		if err != nil {
			return err
		}
		id = n
		e.ID = n
		e.CreatedAt = nowUTC()
		return putJSON(txn, recordKey(prefixExperience, n), e)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BadgerStore) GetExperience(ctx context.Context, id int64) (*model.Experience, error) {
	var e model.Experience
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, recordKey(prefixExperience, id), &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *BadgerStore) ListExperience(ctx context.Context) ([]model.Experience, error) {
	list := []model.Experience{}
	err := s.iterate(prefixExperience, func(val []byte) error {
		var e model.Experience
		if err := unmarshalRecord(val, &e); err != nil {
			return err
		}
		list = append(list, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	store.SortExperience(list)
	return list, nil
}

func (s *BadgerStore) UpdateExperience(ctx context.Context, id int64, patch model.ExperiencePatch) (bool, error) {
	if patch.IsZero() {
		return false, nil
	}
	modified := false
	err := s.update(func(txn *badger.Txn) error {
		modified = false
		var e model.Experience
		if err := getJSON(txn, recordKey(prefixExperience, id), &e); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		patch.Apply(&e)
		modified = true
		return putJSON(txn, recordKey(prefixExperience, id), e)
	})
	return modified, err
}

func (s *BadgerStore) DeleteExperience(ctx context.Context, id int64) (bool, error) {
	return s.deleteRecord(recordKey(prefixExperience, id))
}

// ---- skills ----

func (s *BadgerStore) CreateSkill(ctx context.Context, sk model.Skill) (int64, error) {
	var id int64
	err := s.update(func(txn *badger.Txn) error {
		nameKey := skillNameKey(sk.Name)
		if _, err := txn.Get([]byte(nameKey)); err == nil {
			return store.ErrSkillExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		n, err := nextSeq(txn, model.SeqSkills)
		if err != nil {
			return err
		}
		id = n
		sk.ID = n
		sk.CreatedAt = nowUTC()
		if err := putJSON(txn, recordKey(prefixSkill, n), sk); err != nil {
			return err
		}
		return txn.Set([]byte(nameKey), []byte(strconv.FormatInt(n, 10)))
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BadgerStore) GetSkill(ctx context.Context, id int64) (*model.Skill, error) {
	var sk model.Skill
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, recordKey(prefixSkill, id), &sk)
	})
	if err != nil {
		return nil, err
	}
	return &sk, nil
}

func (s *BadgerStore) ListSkills(ctx context.Context) ([]model.Skill, error) {
	list := []model.Skill{}
	err := s.iterate(prefixSkill, func(val []byte) error {
		var sk model.Skill
		if err := unmarshalRecord(val, &sk); err != nil {
			return err
		}
		list = append(list, sk)
		return nil
	})
	if err != nil {
		return nil, err
	}
	store.SortSkills(list)
	return list, nil
}

func (s *BadgerStore) UpdateSkill(ctx context.Context, id int64, patch model.SkillPatch) (bool, error) {
	if patch.IsZero() {
		return false, nil
	}
	modified := false
	err := s.update(func(txn *badger.Txn) error {
		modified = false
		var sk model.Skill
		if err := getJSON(txn, recordKey(prefixSkill, id), &sk); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}

		oldNameKey := skillNameKey(sk.Name)
		patch.Apply(&sk)
		newNameKey := skillNameKey(sk.Name)
		if newNameKey != oldNameKey {
			if _, err := txn.Get([]byte(newNameKey)); err == nil {
				return store.ErrSkillExists
			} else if err != badger.ErrKeyNotFound {
				return err
			}
			if err := txn.Delete([]byte(oldNameKey)); err != nil {
				return err
			}
			if err := txn.Set([]byte(newNameKey), []byte(strconv.FormatInt(id, 10))); err != nil {
				return err
			}
		}

		modified = true
		return putJSON(txn, recordKey(prefixSkill, id), sk)
	})
	return modified, err
}

func (s *BadgerStore) DeleteSkill(ctx context.Context, id int64) (bool, error) {
	existed := false
	err := s.update(func(txn *badger.Txn) error {
		existed = false
		var sk model.Skill
		if err := getJSON(txn, recordKey(prefixSkill, id), &sk); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		existed = true
		if err := txn.Delete([]byte(skillNameKey(sk.Name))); err != nil {
			return err
		}
		return txn.Delete([]byte(recordKey(prefixSkill, id)))
	})
	return existed, err
}

// ---- about ----

func (s *BadgerStore) UpsertAbout(ctx context.Context, a model.About) (int64, error) {
	var id int64
	err := s.update(func(txn *badger.Txn) error {
		existing, err := firstAbout(txn)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Bio = a.Bio
			existing.CurrentCompany = a.CurrentCompany
			existing.CurrentRole = a.CurrentRole
			existing.UpdatedAt = nowUTC()
			id = existing.ID
			return putJSON(txn, recordKey(prefixAbout, existing.ID), existing)
		}

		n, err := nextSeq(txn, model.SeqAbout)
		if err != nil {
			return err
		}
		id = n
		a.ID = n
		a.UpdatedAt = nowUTC()
		return putJSON(txn, recordKey(prefixAbout, n), a)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BadgerStore) GetAbout(ctx context.Context) (*model.About, error) {
	var about *model.About
	err := s.db.View(func(txn *badger.Txn) error {
		a, err := firstAbout(txn)
		if err != nil {
			return err
		}
		about = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if about == nil {
		return nil, store.ErrNotFound
	}
	return about, nil
}

func firstAbout(txn *badger.Txn) (*model.About, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 1
	it := txn.NewIterator(opts)
	defer it.Close()

	p := []byte(prefixAbout)
	it.Seek(p)
	if !it.ValidForPrefix(p) {
		return nil, nil
	}
	var a model.About
	if err := it.Item().Value(func(val []byte) error {
		return unmarshalRecord(val, &a)
	}); err != nil {
		return nil, err
	}
	return &a, nil
}

// ---- contact submissions ----

func (s *BadgerStore) CreateSubmission(ctx context.Context, sub model.ContactSubmission) (int64, error) {
	var id int64
	err := s.update(func(txn *badger.Txn) error {
		n, err := nextSeq(txn, model.SeqSubmissions)
		if err != nil {
			return err
		}
		id = n
		sub.ID = n
		sub.EmailSent = false
		sub.EmailSentAt = nil
		sub.CreatedAt = nowUTC()
		return putJSON(txn, recordKey(prefixSubmission, n), sub)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BadgerStore) ListSubmissions(ctx context.Context) ([]model.ContactSubmission, error) {
	list := []model.ContactSubmission{}
	err := s.iterate(prefixSubmission, func(val []byte) error {
		var sub model.ContactSubmission
		if err := unmarshalRecord(val, &sub); err != nil {
			return err
		}
		list = append(list, sub)
		return nil
	})
	if err != nil {
		return nil, err
	}
	store.SortSubmissions(list)
	return list, nil
}

func (s *BadgerStore) DeleteSubmission(ctx context.Context, id int64) (bool, error) {
	return s.deleteRecord(recordKey(prefixSubmission, id))
}

func (s *BadgerStore) MarkEmailSent(ctx context.Context, id int64) (bool, error) {
	modified := false
	err := s.update(func(txn *badger.Txn) error {
		modified = false
		var sub model.ContactSubmission
		if err := getJSON(txn, recordKey(prefixSubmission, id), &sub); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		now := nowUTC()
		sub.EmailSent = true
		sub.EmailSentAt = &now
		modified = true
		return putJSON(txn, recordKey(prefixSubmission, id), sub)
	})
	return modified, err
}

func (s *BadgerStore) CountRecentByIP(ctx context.Context, ip string, window time.Duration) (int, error) {
	cutoff := nowUTC().Add(-window)
	count := 0
	err := s.iterate(prefixSubmission, func(val []byte) error {
		var sub model.ContactSubmission
		if err := unmarshalRecord(val, &sub); err != nil {
			return err
		}
		if sub.IPAddress == ip && sub.CreatedAt.After(cutoff) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
