package article

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS article (
	id           BIGSERIAL PRIMARY KEY,
	title        VARCHAR(255) NOT NULL,
	author       VARCHAR(255),
	description  TEXT,
	published_at TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps articles in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create article table: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateMany(ctx context.Context, articles []NewArticle) ([]Article, error) {
	normalized := make([]NewArticle, 0, len(articles))
	for _, a := range articles {
		n, err := a.Normalize()
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, n)
	}

	created := make([]Article, 0, len(normalized))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, n := range normalized {
			a := Article{Title: n.Title, Author: n.Author, Description: n.Description, PublishedAt: n.PublishedAt}
			err := tx.QueryRow(ctx,
				`INSERT INTO article (title, author, description, published_at)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id, created_at, updated_at`,
				n.Title, n.Author, n.Description, n.PublishedAt,
			).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert article: %w", err)
			}
			a.CreatedAt = a.CreatedAt.UTC()
			a.UpdatedAt = a.UpdatedAt.UTC()
			created = append(created, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]Article, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, author, description, published_at, created_at, updated_at
		 FROM article ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	articles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Article, error) {
		var a Article
		err := row.Scan(&a.ID, &a.Title, &a.Author, &a.Description, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan articles: %w", err)
	}
	return articles, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM article`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}
