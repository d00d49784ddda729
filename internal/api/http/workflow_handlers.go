package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/certicredia/certicredia-platform/internal/auditing"
	authmw "github.com/certicredia/certicredia-platform/internal/auth/middleware"
	"github.com/certicredia/certicredia-platform/internal/workflow"
)

func assessmentIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "assessmentID"), 10, 64)
	return id, err == nil && id > 0
}

// POST /assessments/{assessmentID}/assignments
// { "specialist_id": "...", "expires_in_days": 30 }
func AssignSpecialistHandler(store *workflow.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assessmentID, ok := assessmentIDParam(r)
		if !ok {
			http.Error(w, "bad assessment id", http.StatusBadRequest)
			return
		}
		var req struct {
			SpecialistID  string `json:"specialist_id"`
			ExpiresInDays int    `json:"expires_in_days"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.SpecialistID = strings.TrimSpace(req.SpecialistID)
		if req.SpecialistID == "" {
			http.Error(w, "specialist_id required", http.StatusBadRequest)
			return
		}
		assignedBy := authmw.SubjectFromContext(r.Context())
		a, err := store.Assign(r.Context(), assessmentID, req.SpecialistID, assignedBy, req.ExpiresInDays)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a)
	}
}

// GET /assignments?assessment_id=&specialist_id=&status=
func ListAssignmentsHandler(store *workflow.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := workflow.AssignmentFilter{
			SpecialistID: strings.TrimSpace(r.URL.Query().Get("specialist_id")),
			Status:       strings.TrimSpace(r.URL.Query().Get("status")),
		}
		if s := r.URL.Query().Get("assessment_id"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				http.Error(w, "bad assessment_id", http.StatusBadRequest)
				return
			}
			f.AssessmentID = id
		}
		list, err := store.ListAssignments(r.Context(), f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []workflow.Assignment{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// DELETE /assignments/{assignmentID}
func RevokeAssignmentHandler(store *workflow.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assignmentID")
		err := store.Revoke(r.Context(), id)
		if errors.Is(err, workflow.ErrAssignmentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /specialist/access/{token}
//
// Token access is unauthenticated by design: the token itself is the
// credential a specialist received out-of-band. It resolves to the
// assessment view the assignment covers.
func SpecialistAccessHandler(store *workflow.SQLStore, db *sql.DB, svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		a, err := store.GetByToken(r.Context(), token)
		if errors.Is(err, workflow.ErrAssignmentNotFound) {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		var orgID int64
		err = db.QueryRowContext(r.Context(),
			`SELECT organization_id FROM cpf_auditing_assessments WHERE id=$1 AND deleted_at IS NULL`,
			a.AssessmentID).Scan(&orgID)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "assessment not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		view, err := svc.OrganizationView(r.Context(), orgID)
		if err != nil {
			writeAssessmentErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"assignment": a,
			"assessment": view,
		})
	}
}

// POST /assessments/{assessmentID}/comments
// { "indicator_key": "3.7", "body": "..." }
func AddCommentHandler(store *workflow.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assessmentID, ok := assessmentIDParam(r)
		if !ok {
			http.Error(w, "bad assessment id", http.StatusBadRequest)
			return
		}
		var req struct {
			IndicatorKey string `json:"indicator_key"`
			Body         string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Body) == "" {
			http.Error(w, "body required", http.StatusBadRequest)
			return
		}
		c, err := store.AddComment(r.Context(), workflow.ReviewComment{
			AssessmentID: assessmentID,
			IndicatorKey: req.IndicatorKey,
			AuthorID:     authmw.SubjectFromContext(r.Context()),
			Body:         req.Body,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(c)
	}
}

// GET /assessments/{assessmentID}/comments
func ListCommentsHandler(store *workflow.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assessmentID, ok := assessmentIDParam(r)
		if !ok {
			http.Error(w, "bad assessment id", http.StatusBadRequest)
			return
		}
		list, err := store.ListComments(r.Context(), assessmentID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []workflow.ReviewComment{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// GET /workflow/stats
func WorkflowStatsHandler(store *workflow.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Stats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}

// POST /comments/{commentID}/resolve
func ResolveCommentHandler(store *workflow.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "commentID")
		err := store.ResolveComment(r.Context(), id)
		if errors.Is(err, workflow.ErrCommentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
