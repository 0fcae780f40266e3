package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/ports"
)

const (
	articlesTable       = "articles"
	contentsTable       = "article_contents"
	skillCountsTable    = "skill_counts"
	jobGroupCountsTable = "job_group_counts"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists articles, bodies and tag counters into Postgres.
type PostgresStore struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*PostgresStore)(nil)

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Exists reports whether an article with id is stored.
func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	query, args, err := existsQuery(id).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query article %s: %w", id, err)
	}
	return true, nil
}

// Commit applies ops in a single transaction.
func (s *PostgresStore) Commit(ctx context.Context, ops []domain.WriteOp) (err error) {
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, op := range ops {
		stmt, buildErr := opStatement(op)
		if buildErr != nil {
			return fmt.Errorf("op %d: %w", i, buildErr)
		}
		query, args, sqlErr := stmt.ToSql()
		if sqlErr != nil {
			return fmt.Errorf("op %d: build sql: %w", i, sqlErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Kind, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteSource removes every article of sourceID together with its body, batchSize
// articles per transaction. Counters are left untouched.
func (s *PostgresStore) DeleteSource(ctx context.Context, sourceID string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 450
	}

	deleted := 0
	for {
		ids, err := s.sourceIDs(ctx, sourceID, batchSize)
		if err != nil {
			return deleted, err
		}
		if len(ids) == 0 {
			return deleted, nil
		}
		if err := s.deleteBatch(ctx, ids); err != nil {
			return deleted, err
		}
		deleted += len(ids)
	}
}

func (s *PostgresStore) sourceIDs(ctx context.Context, sourceID string, limit int) ([]string, error) {
	query, args, err := psql.Select("id").From(articlesTable).
		Where(sq.Eq{"blog_id": sourceID}).
		OrderBy("id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query source articles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) deleteBatch(ctx context.Context, ids []string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range deleteStatements(ids) {
		query, args, sqlErr := stmt.ToSql()
		if sqlErr != nil {
			return fmt.Errorf("build delete: %w", sqlErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete batch: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func existsQuery(id string) sq.SelectBuilder {
	return psql.Select("1").From(articlesTable).Where(sq.Eq{"id": id}).Limit(1)
}

func opStatement(op domain.WriteOp) (sq.Sqlizer, error) {
	switch op.Kind {
	case domain.OpPutArticle:
		if op.Article == nil {
			return nil, errors.New("put_article without article")
		}
		return insertArticle(*op.Article), nil
	case domain.OpPutContent:
		if op.Content == nil {
			return nil, errors.New("put_content without content")
		}
		return psql.Insert(contentsTable).
			Columns("article_id", "text").
			Values(op.Content.ArticleID, op.Content.Text).
			Suffix("ON CONFLICT (article_id) DO NOTHING"), nil
	case domain.OpIncrementSkill:
		return incrementCounter(skillCountsTable, op.TagID), nil
	case domain.OpIncrementJobGroup:
		return incrementCounter(jobGroupCountsTable, op.TagID), nil
	default:
		return nil, fmt.Errorf("unknown op kind %q", op.Kind)
	}
}

// insertArticle leaves created_at and updated_at to the column defaults.
func insertArticle(a domain.ArticleRecord) sq.InsertBuilder {
	return psql.Insert(articlesTable).
		Columns(
			"id", "title", "link_url", "publish_date", "author", "blog_id", "blog_name",
			"description", "thumbnail_url", "is_valid", "skill_ids", "job_group_ids",
		).
		Values(
			a.ID, a.Title, a.LinkURL, a.PublishDate, a.Author, a.BlogID, a.BlogName,
			a.Description, a.ThumbnailURL, a.IsValid, pq.StringArray(nonNil(a.SkillIDs)), pq.StringArray(nonNil(a.JobGroupIDs)),
		).
		Suffix("ON CONFLICT (id) DO NOTHING")
}

func incrementCounter(table, id string) sq.InsertBuilder {
	return psql.Insert(table).
		Columns("id", "count", "updated_at").
		Values(id, 1, sq.Expr("NOW()")).
		Suffix(fmt.Sprintf("ON CONFLICT (id) DO UPDATE SET count = %s.count + 1, updated_at = NOW()", table))
}

func deleteStatements(ids []string) []sq.Sqlizer {
	return []sq.Sqlizer{
		psql.Delete(contentsTable).Where(sq.Eq{"article_id": ids}),
		psql.Delete(articlesTable).Where(sq.Eq{"id": ids}),
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
