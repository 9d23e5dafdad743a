package news

import (
	"context"
	"sync"
)

// fakeClient is an in-memory provider. A nil result for a call marks the
// provider as failing for it.
type fakeClient struct {
	mu        sync.Mutex
	search    *ResultSet
	top       *ResultSet
	country   *ResultSet
	source    *ResultSet
	calls     map[string]int
	lastLimit int
	block     chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{calls: map[string]int{}}
}

// record counts the call and, when block is set, waits for it to be closed.
// It reports false when ctx ends first, as a real provider call would.
func (f *fakeClient) record(ctx context.Context, name string) bool {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	return ctx.Err() == nil
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func result(r *ResultSet) (ResultSet, bool) {
	if r == nil {
		return ResultSet{}, false
	}
	return *r, true
}

func (f *fakeClient) Search(ctx context.Context, query string, page, limit int) (ResultSet, bool) {
	if !f.record(ctx, "search") {
		return ResultSet{}, false
	}
	return result(f.search)
}

func (f *fakeClient) TopHeadlines(ctx context.Context, country Country, limit int) (ResultSet, bool) {
	if !f.record(ctx, "top") {
		return ResultSet{}, false
	}
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
	return result(f.top)
}

func (f *fakeClient) ByCountry(ctx context.Context, country Country) (ResultSet, bool) {
	if !f.record(ctx, "country") {
		return ResultSet{}, false
	}
	return result(f.country)
}

func (f *fakeClient) BySource(ctx context.Context, sourceID string) (ResultSet, bool) {
	if !f.record(ctx, "source") {
		return ResultSet{}, false
	}
	return result(f.source)
}

func sampleArticles(sources ...string) []Article {
	articles := make([]Article, len(sources))
	for i, s := range sources {
		articles[i] = Article{
			Source:      Source{ID: s, Name: s},
			Title:       "Headline " + s,
			Author:      "Author",
			PublishedAt: "2024-05-01T10:00:00Z",
		}
	}
	return articles
}
