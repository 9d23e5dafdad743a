package news

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/freekieb7/go-newsgate/internal/article"
	apperrors "github.com/freekieb7/go-newsgate/internal/errors"
	"github.com/freekieb7/go-newsgate/internal/pagination"
)

const (
	latestFetchSize = 5
	latestKeep      = 3
)

const (
	MsgFetchNewsFailed      = "Failed to fetch news"
	MsgFetchLatestFailed    = "Failed to fetch latest news"
	MsgFetchHeadlinesFailed = "Failed to fetch headlines"
	MsgFilterRequired       = "country Or source Required"
)

// Service implements the news endpoints on top of the provider and the
// article store.
type Service struct {
	client         Client
	articles       article.Store
	defaultCountry Country
	logger         *slog.Logger
}

func NewService(client Client, articles article.Store, defaultCountry Country, logger *slog.Logger) *Service {
	return &Service{
		client:         client,
		articles:       articles,
		defaultCountry: defaultCountry,
		logger:         logger,
	}
}

// Search returns one page of provider search results. The page count is
// derived from the provider's total, not from the articles returned.
func (s *Service) Search(ctx context.Context, query string, page, limit int) (pagination.Page[Article], error) {
	result, ok := s.client.Search(ctx, query, page, limit)
	if !ok {
		return pagination.Page[Article]{}, apperrors.UpstreamFetchError(MsgFetchNewsFailed, nil)
	}
	return pagination.New(page, limit, result.TotalResults, result.Articles), nil
}

// SaveLatest stores the first three top headlines of the default market and
// returns the stored records.
func (s *Service) SaveLatest(ctx context.Context) ([]article.Article, error) {
	result, ok := s.client.TopHeadlines(ctx, s.defaultCountry, latestFetchSize)
	if !ok {
		return nil, apperrors.UpstreamFetchError(MsgFetchLatestFailed, nil)
	}

	latest := result.Articles
	if len(latest) > latestKeep {
		latest = latest[:latestKeep]
	}

	records := make([]article.NewArticle, 0, len(latest))
	for _, a := range latest {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		records = append(records, toNewArticle(a))
	}
	if len(records) == 0 {
		return []article.Article{}, nil
	}

	saved, err := s.articles.CreateMany(ctx, records)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to save latest news", err)
	}

	s.logger.InfoContext(ctx, "Saved latest headlines", slog.Int("count", len(saved)))
	return saved, nil
}

func (s *Service) ByCountry(ctx context.Context, country Country) ([]Article, error) {
	result, ok := s.client.ByCountry(ctx, country)
	if !ok {
		return nil, apperrors.UpstreamFetchError(MsgFetchHeadlinesFailed, nil)
	}
	return result.Articles, nil
}

func (s *Service) BySource(ctx context.Context, sourceID string) ([]Article, error) {
	result, ok := s.client.BySource(ctx, sourceID)
	if !ok {
		return nil, apperrors.UpstreamFetchError(MsgFetchHeadlinesFailed, nil)
	}
	return result.Articles, nil
}

// Filter looks headlines up by country, by source, or by both. The provider
// cannot combine the two, so with both given the country's headlines are
// narrowed to the requested source here.
func (s *Service) Filter(ctx context.Context, country Country, sourceID string) ([]Article, error) {
	sourceID = strings.TrimSpace(sourceID)

	switch {
	case country != "" && sourceID != "":
		headlines, err := s.ByCountry(ctx, country)
		if err != nil {
			return nil, err
		}
		want := NormalizeSourceID(sourceID)
		matched := make([]Article, 0, len(headlines))
		for _, a := range headlines {
			if a.Source.ID == want {
				matched = append(matched, a)
			}
		}
		return matched, nil
	case country != "":
		return s.ByCountry(ctx, country)
	case sourceID != "":
		return s.BySource(ctx, sourceID)
	}
	return nil, apperrors.ValidationError(MsgFilterRequired, nil)
}

// Saved lists stored articles, newest first.
func (s *Service) Saved(ctx context.Context, page, limit int) (pagination.Page[article.Article], error) {
	total, err := s.articles.Count(ctx)
	if err != nil {
		return pagination.Page[article.Article]{}, apperrors.DatabaseError("failed to count articles", err)
	}

	var items []article.Article
	if offset := pagination.Offset(page, limit); offset < total {
		items, err = s.articles.List(ctx, offset, limit)
		if err != nil {
			return pagination.Page[article.Article]{}, apperrors.DatabaseError("failed to list articles", err)
		}
	}
	return pagination.New(page, limit, total, items), nil
}

func toNewArticle(a Article) article.NewArticle {
	record := article.NewArticle{Title: a.Title}
	if a.Author != "" {
		author := a.Author
		record.Author = &author
	}
	if a.Description != "" {
		description := a.Description
		record.Description = &description
	}
	if published, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
		record.PublishedAt = &published
	}
	return record
}
