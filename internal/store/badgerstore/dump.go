package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/arkadas/portfolio-api/pkg/model"
)

func unmarshalRecord(val []byte, out any) error {
	return json.Unmarshal(val, out)
}

// Dump exports every collection plus the sequence counters in one
// consistent view transaction.
func (s *BadgerStore) Dump(ctx context.Context) (*model.Dump, error) {
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

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		collect := func(prefix string, fn func(val []byte) error) error {
			p := []byte(prefix)
			for it.Seek(p); it.ValidForPrefix(p); it.Next() {
				if err := it.Item().Value(fn); err != nil {
					return err
				}
			}
			return nil
		}

		if err := collect(prefixProject, func(val []byte) error {
			var p model.Project
			if err := unmarshalRecord(val, &p); err != nil {
				return err
			}
			d.Collections.Projects = append(d.Collections.Projects, p)
			return nil
		}); err != nil {
			return err
		}
		if err := collect(prefixExperience, func(val []byte) error {
			var e model.Experience
			if err := unmarshalRecord(val, &e); err != nil {
				return err
			}
			d.Collections.Experience = append(d.Collections.Experience, e)
			return nil
		}); err != nil {
			return err
		}
		if err := collect(prefixSkill, func(val []byte) error {
			var sk model.Skill
			if err := unmarshalRecord(val, &sk); err != nil {
				return err
			}
			d.Collections.Skills = append(d.Collections.Skills, sk)
			return nil
		}); err != nil {
			return err
		}
		if err := collect(prefixAbout, func(val []byte) error {
			var a model.About
			if err := unmarshalRecord(val, &a); err != nil {
				return err
			}
			d.Collections.About = append(d.Collections.About, a)
			return nil
		}); err != nil {
			return err
		}
		if err := collect(prefixSubmission, func(val []byte) error {
			var sub model.ContactSubmission
			if err := unmarshalRecord(val, &sub); err != nil {
				return err
			}
			d.Collections.Submissions = append(d.Collections.Submissions, sub)
			return nil
		}); err != nil {
			return err
		}

		// Counters: key is seq:<name>, value is the last issued id.
		p := []byte(prefixSeq)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			name := string(it.Item().Key()[len(prefixSeq):])
			if err := it.Item().Value(func(val []byte) error {
				n, perr := strconv.ParseInt(string(val), 10, 64)
				if perr != nil {
					return perr
				}
				d.Collections.Counters = append(d.Collections.Counters, model.Counter{Name: name, Seq: n})
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dump collections: %w", err)
	}
	return d, nil
}

// Load drops every key and bulk-inserts the dump. Records keep their
// identifiers; counters are restored so the next create continues the
// sequence instead of reissuing ids.
func (s *BadgerStore) Load(ctx context.Context, d *model.Dump) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	set := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		return wb.Set([]byte(key), data)
	}

	for _, p := range d.Collections.Projects {
		if err := set(recordKey(prefixProject, p.ID), p); err != nil {
			return err
		}
	}
	for _, e := range d.Collections.Experience {
		if err := set(recordKey(prefixExperience, e.ID), e); err != nil {
			return err
		}
	}
	for _, sk := range d.Collections.Skills {
		if err := set(recordKey(prefixSkill, sk.ID), sk); err != nil {
			return err
		}
		if err := wb.Set([]byte(skillNameKey(sk.Name)), []byte(strconv.FormatInt(sk.ID, 10))); err != nil {
			return err
		}
	}
	for _, a := range d.Collections.About {
		if err := set(recordKey(prefixAbout, a.ID), a); err != nil {
			return err
		}
	}
	for _, sub := range d.Collections.Submissions {
		if err := set(recordKey(prefixSubmission, sub.ID), sub); err != nil {
			return err
		}
	}
	for _, c := range d.Collections.Counters {
		if err := wb.Set([]byte(prefixSeq+c.Name), []byte(strconv.FormatInt(c.Seq, 10))); err != nil {
			return err
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("load collections: %w", err)
	}
	if err := s.db.Sync(); err != nil {
		return fmt.Errorf("sync after load: %w", err)
	}
	return nil
}
