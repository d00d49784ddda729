package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/certicredia/certicredia-platform/internal/org"
)

type orgReq struct {
	Name   string `json:"name"`
	Type   string `json:"organization_type"`
	Status string `json:"status"`
}

func validOrgStatus(s string) bool {
	return s == org.StatusActive || s == org.StatusInactive || s == org.StatusPending
}

// GET /organizations
func ListOrganizationsHandler(store org.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := org.ListOpts{
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 100),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := store.List(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []org.Organization{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// GET /organizations/{orgID}
func GetOrganizationHandler(store org.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := orgIDParam(r)
		if !ok {
			http.Error(w, "bad organization id", http.StatusBadRequest)
			return
		}
		o, err := store.Get(r.Context(), id)
		if errors.Is(err, org.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(o)
	}
}

// POST /organizations
func CreateOrganizationHandler(store org.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orgReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		if req.Status != "" && !validOrgStatus(req.Status) {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		o, err := store.Create(r.Context(), org.Organization{
			Name:   req.Name,
			Type:   req.Type,
			Status: req.Status,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(o)
	}
}

// PUT /organizations/{orgID}
func UpdateOrganizationHandler(store org.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := orgIDParam(r)
		if !ok {
			http.Error(w, "bad organization id", http.StatusBadRequest)
			return
		}
		var req orgReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		if !validOrgStatus(req.Status) {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		o, err := store.Update(r.Context(), org.Organization{
			ID:     id,
			Name:   req.Name,
			Type:   req.Type,
			Status: req.Status,
		})
		if errors.Is(err, org.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(o)
	}
}
