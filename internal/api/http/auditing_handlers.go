package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/certicredia/certicredia-platform/internal/auditing"
	"github.com/certicredia/certicredia-platform/internal/cpf"
	"github.com/certicredia/certicredia-platform/internal/org"
)

type assessmentReq struct {
	Data     cpf.AssessmentDocument `json:"data"`
	Metadata json.RawMessage        `json:"metadata"`
}

func orgIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	return id, err == nil && id > 0
}

// writeAssessmentErr maps service errors onto HTTP statuses. Document
// validation failures are client errors and carry the offending key.
func writeAssessmentErr(w http.ResponseWriter, err error) {
	var mk *cpf.MalformedKeyError
	var iv *cpf.InvalidIndicatorValueError
	switch {
	case errors.As(err, &mk), errors.As(err, &iv):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auditing.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auditing.ErrNotFound),
		errors.Is(err, auditing.ErrDeletedNotFound),
		errors.Is(err, org.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GET /auditing/organizations/{orgID} -> derived assessment view
func GetAssessmentHandler(svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := orgIDParam(r)
		if !ok {
			http.Error(w, "bad organization id", http.StatusBadRequest)
			return
		}
		view, err := svc.OrganizationView(r.Context(), orgID)
		if err != nil {
			writeAssessmentErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view)
	}
}

// POST /auditing/organizations/{orgID}
func CreateAssessmentHandler(svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := orgIDParam(r)
		if !ok {
			http.Error(w, "bad organization id", http.StatusBadRequest)
			return
		}
		var req assessmentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := svc.Create(r.Context(), orgID, req.Data, req.Metadata)
		if err != nil {
			writeAssessmentErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a)
	}
}

// PUT /auditing/organizations/{orgID}
func UpdateAssessmentHandler(svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := orgIDParam(r)
		if !ok {
			http.Error(w, "bad organization id", http.StatusBadRequest)
			return
		}
		var req assessmentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := svc.Update(r.Context(), orgID, req.Data, req.Metadata)
		if err != nil {
			writeAssessmentErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a)
	}
}

// DELETE /auditing/organizations/{orgID} -> soft delete (moves to trash)
func DeleteAssessmentHandler(svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := orgIDParam(r)
		if !ok {
			http.Error(w, "bad organization id", http.StatusBadRequest)
			return
		}
		a, err := svc.SoftDelete(r.Context(), orgID)
		if err != nil {
			writeAssessmentErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a)
	}
}

// POST /auditing/organizations/{orgID}/restore
func RestoreAssessmentHandler(svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := orgIDParam(r)
		if !ok {
			http.Error(w, "bad organization id", http.StatusBadRequest)
			return
		}
		a, err := svc.Restore(r.Context(), orgID)
		if err != nil {
			writeAssessmentErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a)
	}
}

// DELETE /auditing/organizations/{orgID}/purge -> remove even from trash
func PurgeAssessmentHandler(svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := orgIDParam(r)
		if !ok {
			http.Error(w, "bad organization id", http.StatusBadRequest)
			return
		}
		found, err := svc.PermanentDelete(r.Context(), orgID)
		if err != nil {
			writeAssessmentErr(w, err)
			return
		}
		if !found {
			http.Error(w, "assessment not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /auditing/assessments
func ListAssessmentsHandler(svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := auditing.ListOpts{
			Limit:          parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:         parseIntDefault(r.URL.Query().Get("offset"), 0),
			IncludeDeleted: r.URL.Query().Get("includeDeleted") == "true",
		}
		list, err := svc.List(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []auditing.Assessment{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// GET /auditing/trash
func ListTrashHandler(svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Trash(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []auditing.Assessment{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
