// Package server exposes the conversions over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/open-cli-collective/wtconv/api"
	"github.com/open-cli-collective/wtconv/internal/config"
)

// HTMLContentType is sent with every annotated HTML response.
const HTMLContentType = `text/html; charset=utf-8; profile="https://www.mediawiki.org/wiki/Specs/HTML/2.1.0"`

// WikitextContentType is sent with wikitext responses.
const WikitextContentType = "text/plain; charset=utf-8"

// maxBodyBytes caps request bodies before the html2wt size limit applies.
const maxBodyBytes = 32 << 20

// Server is the HTTP transform server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	sources api.PageSourceGetter
	log     *slog.Logger
}

// NewServer creates the server. sources resolves templates during
// wikitext conversions and may be nil, in which case every template is
// reported missing.
func NewServer(cfg *config.Config, sources api.PageSourceGetter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:     cfg,
		sources: sources,
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/transform", func(r chi.Router) {
		r.Post("/wikitext/to/html", s.handleWikitextToHTML)
		r.Post("/wikitext/to/html/{title}", s.handleWikitextToHTML)
		r.Post("/html/to/wikitext", s.handleHTMLToWikitext)
		r.Post("/html/to/wikitext/{title}", s.handleHTMLToWikitext)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
