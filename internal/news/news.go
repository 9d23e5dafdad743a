// Package news fetches headlines from the upstream provider and shapes them
// for the API.
package news

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source identifies the publisher of an article.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Article is an article exactly as the provider describes it.
type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// ResultSet is one provider response.
type ResultSet struct {
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Client is the provider capability. Every method reports false when the
// provider could not be reached or refused the request; the failure itself
// has already been logged.
type Client interface {
	Search(ctx context.Context, query string, page, limit int) (ResultSet, bool)
	TopHeadlines(ctx context.Context, country Country, limit int) (ResultSet, bool)
	ByCountry(ctx context.Context, country Country) (ResultSet, bool)
	BySource(ctx context.Context, sourceID string) (ResultSet, bool)
}

// Country is a market headlines can be requested for.
type Country string

const CountryUS Country = "us"

var countries = []Country{CountryUS}

// ParseCountry accepts only the supported country codes, exactly as written.
func ParseCountry(code string) (Country, error) {
	for _, c := range countries {
		if string(c) == code {
			return c, nil
		}
	}
	return "", fmt.Errorf("Input should be %s", quotedCountries())
}

func quotedCountries() string {
	quoted := make([]string, len(countries))
	for i, c := range countries {
		quoted[i] = "'" + string(c) + "'"
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

var lower = cases.Lower(language.Und)

// NormalizeSourceID turns a human source name into a provider source id:
// "BBC  News" becomes "bbc-news".
func NormalizeSourceID(source string) string {
	return strings.Join(strings.Fields(lower.String(source)), "-")
}
