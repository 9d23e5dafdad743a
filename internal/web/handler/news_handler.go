package handler

import (
	"log/slog"
	"net/http"

	"github.com/freekieb7/go-newsgate/internal/news"
	"github.com/freekieb7/go-newsgate/internal/web/response"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type NewsHandler struct {
	News   *news.Service
	Logger *slog.Logger
}

func NewNewsHandler(newsService *news.Service, logger *slog.Logger) NewsHandler {
	return NewsHandler{
		News:   newsService,
		Logger: logger,
	}
}

// RegisterRoutes mounts the news routes behind wrap, which is expected to
// enforce authentication.
func (h *NewsHandler) RegisterRoutes(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("GET /news", wrap(http.HandlerFunc(h.HandleSearch)))
	mux.Handle("POST /news/save-latest", wrap(http.HandlerFunc(h.HandleSaveLatest)))
	mux.Handle("GET /news/headlines/country/{country_code}", wrap(http.HandlerFunc(h.HandleHeadlinesByCountry)))
	mux.Handle("GET /news/headlines/source/{source_id}", wrap(http.HandlerFunc(h.HandleHeadlinesBySource)))
	mux.Handle("GET /news/headlines/filter", wrap(http.HandlerFunc(h.HandleHeadlinesFilter)))
	mux.Handle("GET /news/articles", wrap(http.HandlerFunc(h.HandleSavedArticles)))
}

func (h *NewsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	p := newParams(r.URL.Query())
	search := p.String("search", 1)
	page := p.Int("page", defaultPage, 1)
	limit := p.Int("limit", defaultLimit, 1)
	if err := p.Err(); err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	result, err := h.News.Search(r.Context(), search, page, limit)
	if err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	response.SuccessResponse(w, result)
}

func (h *NewsHandler) HandleSaveLatest(w http.ResponseWriter, r *http.Request) {
	saved, err := h.News.SaveLatest(r.Context())
	if err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	response.SuccessResponse(w, saved)
}

func (h *NewsHandler) HandleHeadlinesByCountry(w http.ResponseWriter, r *http.Request) {
	p := newParams(nil)
	country := p.Country("country_code", r.PathValue("country_code"), true)
	if err := p.Err(); err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	articles, err := h.News.ByCountry(r.Context(), country)
	if err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	response.SuccessResponse(w, articles)
}

func (h *NewsHandler) HandleHeadlinesBySource(w http.ResponseWriter, r *http.Request) {
	articles, err := h.News.BySource(r.Context(), r.PathValue("source_id"))
	if err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	response.SuccessResponse(w, articles)
}

// HandleHeadlinesFilter accepts country, source or both. Neither is
// rejected by the service.
func (h *NewsHandler) HandleHeadlinesFilter(w http.ResponseWriter, r *http.Request) {
	p := newParams(r.URL.Query())
	country := p.Country("country", p.Optional("country"), false)
	source := p.Optional("source")
	if err := p.Err(); err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	articles, err := h.News.Filter(r.Context(), country, source)
	if err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	response.SuccessResponse(w, articles)
}

func (h *NewsHandler) HandleSavedArticles(w http.ResponseWriter, r *http.Request) {
	p := newParams(r.URL.Query())
	page := p.Int("page", defaultPage, 1)
	limit := p.Int("limit", defaultLimit, 1)
	if err := p.Err(); err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	result, err := h.News.Saved(r.Context(), page, limit)
	if err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	response.SuccessResponse(w, result)
}
