// Package article persists headlines saved from the news provider.
package article

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest title, in characters, a record may hold.
const MaxTitleLength = 255

// Article is a saved headline. Timestamps are assigned by the store.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Author      *string    `json:"author"`
	Description *string    `json:"description"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewArticle holds the caller-supplied fields of a record to create.
type NewArticle struct {
	Title       string
	Author      *string
	Description *string
	PublishedAt *time.Time
}

var ErrTitleRequired = errors.New("article title is required")

// Normalize trims the title and cuts it to MaxTitleLength characters.
func (n NewArticle) Normalize() (NewArticle, error) {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return n, ErrTitleRequired
	}
	n.Title = truncate(n.Title, MaxTitleLength)
	if n.Author != nil {
		author := truncate(*n.Author, MaxTitleLength)
		n.Author = &author
	}
	if n.PublishedAt != nil {
		published := n.PublishedAt.UTC()
		n.PublishedAt = &published
	}
	return n, nil
}

// Store is a create/read store for saved articles.
type Store interface {
	// CreateMany inserts all records in one transaction and returns them
	// in input order with ids and timestamps filled in.
	CreateMany(ctx context.Context, articles []NewArticle) ([]Article, error)
	// List returns records newest first.
	List(ctx context.Context, offset, limit int) ([]Article, error)
	Count(ctx context.Context) (int, error)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
