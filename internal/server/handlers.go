package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"log"
	"net/http"

	"github.com/aryannaik/transcript-search/internal/episodes"
	"github.com/aryannaik/transcript-search/internal/present"
	"github.com/aryannaik/transcript-search/internal/session"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type Handlers struct {
	sess *session.Session
}

func NewHandlers(sess *session.Session) *Handlers {
	return &Handlers{sess: sess}
}

type searchResponse struct {
	present.Page
	Notice string `json:"notice,omitempty"`
}

func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter 'q'"})
		return
	}

	page, err := h.sess.Query(r.Context(), query)
	if err != nil {
		log.Printf("Search error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Page: page, Notice: page.Notice()})
}

func (h *Handlers) HandleEpisodes(w http.ResponseWriter, r *http.Request) {
	found := h.sess.Episodes(r.URL.Query().Get("q"))
	if found == nil {
		found = []episodes.Episode{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"episodes": found,
		"total":    len(found),
	})
}

func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Stats())
}

type pageData struct {
	Query  string
	Page   present.Page
	Notice string
}

// HandlePage renders the search form and, for a searchable q, its results.
func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query().Get("q")
	page, err := h.sess.Query(r.Context(), query)
	if err != nil {
		log.Printf("Search error: %v", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{Query: query, Page: page, Notice: page.Notice()}
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("Render error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
