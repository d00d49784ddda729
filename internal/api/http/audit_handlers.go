package http

import (
	"encoding/json"
	"net/http"

	"github.com/certicredia/certicredia-platform/internal/audit"
)

// GET /audit/trail?limit=100
func AuditTrailHandler(repo *audit.TrailRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := repo.Recent(r.Context(), parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []audit.Entry{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}
