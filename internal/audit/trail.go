package audit

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	authmw "github.com/certicredia/certicredia-platform/internal/auth/middleware"
)

// Entry is one row in the platform audit trail. Mutating API calls are
// recorded with the acting subject so certification reviews can reconstruct
// who changed what.
type Entry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"` // e.g. "PUT /auditing/organizations/3"
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type TrailRepo struct{ db *sql.DB }

func NewTrailRepo(db *sql.DB) *TrailRepo { return &TrailRepo{db: db} }

func (r *TrailRepo) Append(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (actor, action, status, created_at)
		 VALUES ($1,$2,$3,$4)`,
		e.Actor, e.Action, e.Status, time.Now().Unix())
	return err
}

func (r *TrailRepo) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, actor, action, status, created_at FROM audit_log
		 ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Status, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records every mutating request made by an authenticated
// subject. Reads are not logged. Trail write failures never fail the
// request itself.
func Middleware(repo *TrailRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			_ = repo.Append(r.Context(), Entry{
				Actor:  authmw.SubjectFromContext(r.Context()),
				Action: r.Method + " " + r.URL.Path,
				Status: rec.status,
			})
		})
	}
}
