package http

import (
	"encoding/json"
	"net/http"

	"github.com/certicredia/certicredia-platform/internal/auditing"
)

// GET /auditing/statistics -> platform-wide rollup recomputed from documents
func StatisticsHandler(svc *auditing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Statistics(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}
