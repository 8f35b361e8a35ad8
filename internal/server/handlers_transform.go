package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/open-cli-collective/wtconv/api"
	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// transformRequest is the body of both transform endpoints. Form posts
// use the same field names.
type transformRequest struct {
	Wikitext      string `json:"wikitext"`
	HTML          string `json:"html"`
	Title         string `json:"title"`
	ScrubWikitext *bool  `json:"scrub_wikitext,omitempty"`
}

// handleWikitextToHTML converts wikitext to annotated HTML.
func (s *Server) handleWikitextToHTML(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTransformRequest(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var data wt.DataAccess
	if s.sources != nil {
		data = api.NewDataAccess(r.Context(), s.sources)
	}
	env := s.cfg.NewEnv(wt.NewStaticPage(req.Title, req.Wikitext), data, s.log)

	out, err := wt.WikitextToHTML(env)
	if err != nil {
		s.transformError(w, "wt2html", err)
		return
	}
	s.log.Debug("wt2html", "title", req.Title, "lints", len(env.Lints()))

	w.Header().Set("Content-Type", HTMLContentType)
	w.Header().Set("Content-Language", env.PageLanguage())
	w.Write([]byte(out))
}

// handleHTMLToWikitext converts annotated HTML back to wikitext.
func (s *Server) handleHTMLToWikitext(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTransformRequest(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := *s.cfg
	if req.ScrubWikitext != nil {
		cfg.ScrubWikitext = *req.ScrubWikitext
	}
	env := cfg.NewEnv(wt.NewStaticPage(req.Title, ""), nil, s.log)

	out, err := wt.HTMLToWikitext(env, req.HTML)
	if err != nil {
		s.transformError(w, "html2wt", err)
		return
	}

	w.Header().Set("Content-Type", WikitextContentType)
	w.Write([]byte(out))
}

func decodeTransformRequest(w http.ResponseWriter, r *http.Request) (*transformRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req := &transformRequest{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		req.Wikitext = r.PostForm.Get("wikitext")
		req.HTML = r.PostForm.Get("html")
		req.Title = r.PostForm.Get("title")
		if v := r.PostForm.Get("scrub_wikitext"); v != "" {
			scrub := v == "true" || v == "1"
			req.ScrubWikitext = &scrub
		}
	}

	if title := chi.URLParam(r, "title"); title != "" {
		unescaped, err := url.PathUnescape(title)
		if err != nil {
			return nil, fmt.Errorf("invalid title: %w", err)
		}
		req.Title = unescaped
	}
	return req, nil
}

// transformError maps conversion failures to HTTP statuses.
func (s *Server) transformError(w http.ResponseWriter, direction string, err error) {
	var limitErr *wt.ResourceLimitExceededError
	var unsupportedErr *wt.UnsupportedOperationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &limitErr):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &unsupportedErr):
		status = http.StatusNotImplemented
	}
	s.log.Warn("conversion failed", "direction", direction, "status", status, "error", err)
	jsonError(w, err.Error(), status)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
