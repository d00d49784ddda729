package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/certicredia/certicredia-platform/internal/auth/middleware"
	"github.com/certicredia/certicredia-platform/internal/template"
)

// POST /templates
// { "name": "...", "type": "finance", "template_data": {...}, "description": "..." }
func CreateTemplateHandler(store *template.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name         string          `json:"name"`
			Type         string          `json:"type"`
			TemplateData json.RawMessage `json:"template_data"`
			Description  string          `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Type = strings.TrimSpace(req.Type)
		if req.Name == "" || req.Type == "" {
			http.Error(w, "name and type required", http.StatusBadRequest)
			return
		}
		tpl, err := store.Create(r.Context(), template.Template{
			Name:         req.Name,
			Type:         req.Type,
			TemplateData: req.TemplateData,
			Description:  req.Description,
			CreatedBy:    authmw.SubjectFromContext(r.Context()),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(tpl)
	}
}

// GET /templates?type=
func ListTemplatesHandler(store *template.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := template.ListOpts{Type: strings.TrimSpace(r.URL.Query().Get("type"))}
		list, err := store.List(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []template.Template{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// GET /templates/{templateID}
func GetTemplateHandler(store *template.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tpl, err := store.Get(r.Context(), chi.URLParam(r, "templateID"))
		if errors.Is(err, template.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tpl)
	}
}

// POST /templates/{templateID}/activate
func ActivateTemplateHandler(store *template.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tpl, err := store.Activate(r.Context(), chi.URLParam(r, "templateID"))
		if errors.Is(err, template.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tpl)
	}
}

// GET /templates/active/{type}
func GetActiveTemplateHandler(store *template.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tpl, err := store.GetActive(r.Context(), chi.URLParam(r, "type"))
		if errors.Is(err, template.ErrNotFound) {
			http.Error(w, "no active template for type", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tpl)
	}
}
