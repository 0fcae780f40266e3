package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/ports"
)

var (
	articlesBucket       = []byte("articles")
	contentsBucket       = []byte("contents")
	skillCountsBucket    = []byte("skill_counts")
	jobGroupCountsBucket = []byte("job_group_counts")
)

// Counter is a tag popularity document.
type Counter struct {
	Count     int64     `json:"count"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BoltStore is a single-file document store for local runs and tests.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

var _ ports.ArticleStore = (*BoltStore)(nil)

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{articlesBucket, contentsBucket, skillCountsBucket, jobGroupCountsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Exists(_ context.Context, id string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(articlesBucket).Get([]byte(id)) != nil
		return nil
	})
	return found, err
}

// Commit applies ops in one Update transaction. Articles and bodies are written
// only when absent.
func (s *BoltStore) Commit(ctx context.Context, ops []domain.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	return s.db.Update(func(tx *bolt.Tx) error {
		for i, op := range ops {
			var err error
			switch op.Kind {
			case domain.OpPutArticle:
				if op.Article == nil {
					return fmt.Errorf("op %d: put_article without article", i)
				}
				article := *op.Article
				article.CreatedAt, article.UpdatedAt = now, now
				err = putIfAbsent(tx.Bucket(articlesBucket), article.ID, &article)
			case domain.OpPutContent:
				if op.Content == nil {
					return fmt.Errorf("op %d: put_content without content", i)
				}
				err = putIfAbsent(tx.Bucket(contentsBucket), op.Content.ArticleID, op.Content)
			case domain.OpIncrementSkill:
				err = increment(tx.Bucket(skillCountsBucket), op.TagID, now)
			case domain.OpIncrementJobGroup:
				err = increment(tx.Bucket(jobGroupCountsBucket), op.TagID, now)
			default:
				err = fmt.Errorf("unknown op kind %q", op.Kind)
			}
			if err != nil {
				return fmt.Errorf("op %d: %w", i, err)
			}
		}
		return nil
	})
}

// DeleteSource removes the articles and bodies of sourceID in batches.
func (s *BoltStore) DeleteSource(ctx context.Context, sourceID string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 450
	}

	deleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		var ids [][]byte
		err := s.db.View(func(tx *bolt.Tx) error {
			return tx.Bucket(articlesBucket).ForEach(func(k, v []byte) error {
				if len(ids) >= batchSize {
					return nil
				}
				var rec domain.ArticleRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					return fmt.Errorf("decode %s: %w", k, err)
				}
				if rec.BlogID == sourceID {
					ids = append(ids, append([]byte(nil), k...))
				}
				return nil
			})
		})
		if err != nil {
			return deleted, err
		}
		if len(ids) == 0 {
			return deleted, nil
		}

		err = s.db.Update(func(tx *bolt.Tx) error {
			for _, id := range ids {
				if err := tx.Bucket(contentsBucket).Delete(id); err != nil {
					return err
				}
				if err := tx.Bucket(articlesBucket).Delete(id); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return deleted, fmt.Errorf("delete batch: %w", err)
		}
		deleted += len(ids)
	}
}

// Article loads a stored record.
func (s *BoltStore) Article(id string) (domain.ArticleRecord, bool, error) {
	var rec domain.ArticleRecord
	found, err := s.get(articlesBucket, id, &rec)
	return rec, found, err
}

// Content loads a stored body.
func (s *BoltStore) Content(id string) (domain.ContentBody, bool, error) {
	var body domain.ContentBody
	found, err := s.get(contentsBucket, id, &body)
	return body, found, err
}

// SkillCount returns the counter for a skill, zero when never incremented.
func (s *BoltStore) SkillCount(id string) (int64, error) {
	var c Counter
	_, err := s.get(skillCountsBucket, id, &c)
	return c.Count, err
}

// JobGroupCount returns the counter for a job group.
func (s *BoltStore) JobGroupCount(id string) (int64, error) {
	var c Counter
	_, err := s.get(jobGroupCountsBucket, id, &c)
	return c.Count, err
}

func (s *BoltStore) get(bucket []byte, key string, v any) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, v)
	})
	return found, err
}

func putIfAbsent(b *bolt.Bucket, key string, v any) error {
	if key == "" {
		return errors.New("empty key")
	}
	if b.Get([]byte(key)) != nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func increment(b *bolt.Bucket, key string, now time.Time) error {
	if key == "" {
		return errors.New("empty counter id")
	}
	var c Counter
	if data := b.Get([]byte(key)); data != nil {
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode counter %s: %w", key, err)
		}
	}
	c.Count++
	c.UpdatedAt = now
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}
