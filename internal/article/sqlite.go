package article

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS article (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT    NOT NULL,
	author       TEXT,
	description  TEXT,
	published_at INTEGER,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
)`

// SQLiteStore keeps articles in SQLite. Timestamps are stored as Unix
// milliseconds in UTC.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create article table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateMany(ctx context.Context, articles []NewArticle) ([]Article, error) {
	normalized := make([]NewArticle, 0, len(articles))
	for _, a := range articles {
		n, err := a.Normalize()
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, n)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO article (title, author, description, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := toMillis(s.now())
	created := make([]Article, 0, len(normalized))
	for _, n := range normalized {
		var published sql.NullInt64
		if n.PublishedAt != nil {
			published = sql.NullInt64{Int64: toMillis(*n.PublishedAt), Valid: true}
		}

		res, err := stmt.ExecContext(ctx, n.Title, nullString(n.Author), nullString(n.Description), published, now, now)
		if err != nil {
			return nil, fmt.Errorf("insert article: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read article id: %w", err)
		}

		created = append(created, Article{
			ID:          id,
			Title:       n.Title,
			Author:      n.Author,
			Description: n.Description,
			PublishedAt: n.PublishedAt,
			CreatedAt:   fromMillis(now),
			UpdatedAt:   fromMillis(now),
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *SQLiteStore) List(ctx context.Context, offset, limit int) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, author, description, published_at, created_at, updated_at
		 FROM article ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var (
			a                   Article
			author, description sql.NullString
			published           sql.NullInt64
			createdAt           int64
			updatedAt           int64
		)
		if err := rows.Scan(&a.ID, &a.Title, &author, &description, &published, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if author.Valid {
			a.Author = &author.String
		}
		if description.Valid {
			a.Description = &description.String
		}
		if published.Valid {
			t := fromMillis(published.Int64)
			a.PublishedAt = &t
		}
		a.CreatedAt = fromMillis(createdAt)
		a.UpdatedAt = fromMillis(updatedAt)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM article`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
