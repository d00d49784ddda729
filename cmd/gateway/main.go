package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	api "github.com/certicredia/certicredia-platform/internal/api/http"
	"github.com/certicredia/certicredia-platform/internal/audit"
	"github.com/certicredia/certicredia-platform/internal/auditing"
	ccauth "github.com/certicredia/certicredia-platform/internal/auth"
	auth "github.com/certicredia/certicredia-platform/internal/auth/middleware"
	"github.com/certicredia/certicredia-platform/internal/config"
	"github.com/certicredia/certicredia-platform/internal/db"
	"github.com/certicredia/certicredia-platform/internal/evidence"
	"github.com/certicredia/certicredia-platform/internal/org"
	rbac "github.com/certicredia/certicredia-platform/internal/rbac"
	"github.com/certicredia/certicredia-platform/internal/report"
	storage "github.com/certicredia/certicredia-platform/internal/storage"
	"github.com/certicredia/certicredia-platform/internal/template"
	"github.com/certicredia/certicredia-platform/internal/workflow"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		slog.Error("db open failed", "err", err)
		os.Exit(1)
	}

	// --- Stores and services ---
	orgs := org.NewSQLStore(dbh)
	assessments := auditing.NewService(auditing.NewSQLStore(dbh), orgs)
	assignments := workflow.NewSQLStore(dbh)
	templates := template.NewSQLStore(dbh)
	reports := report.NewService(dbh, assessments)
	trail := audit.NewTrailRepo(dbh)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		slog.Error("blob store init failed", "err", err)
		os.Exit(1)
	}
	evidenceSvc := evidence.NewService(dbh, bs, cfg.EvidenceMaxBytes)

	// --- Auth (local JWT for offline/dev) ---
	secret := getenvOr("AUTH_HMAC_SECRET", "supersecret-dev-key")
	authSvc := auth.NewAuthService(secret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	corsOrigins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		corsOrigins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, cfg.AdminUser, cfg.AdminPassHash))
	}
	if cfg.EnableGoogleAuth {
		r.Get("/auth/google/login", ccauth.GoogleLoginHandler(cfg))
		r.Get("/auth/google/callback", ccauth.GoogleCallbackHandler(authSvc, dbh, cfg))
	}

	// Specialist token access is its own credential; no JWT required.
	r.Get("/specialist/access/{token}", api.SpecialistAccessHandler(assignments, dbh, assessments))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))
		pr.Use(audit.Middleware(trail))

		// Organizations
		pr.With(rbac.Require("organization:view")).
			Get("/organizations", api.ListOrganizationsHandler(orgs))
		pr.With(rbac.Require("organization:view")).
			Get("/organizations/{orgID}", api.GetOrganizationHandler(orgs))
		pr.With(rbac.Require("organization:create")).
			Post("/organizations", api.CreateOrganizationHandler(orgs))
		pr.With(rbac.Require("organization:update")).
			Put("/organizations/{orgID}", api.UpdateOrganizationHandler(orgs))

		// Assessments (one live per organization)
		pr.With(rbac.Require("assessment:view")).
			Get("/auditing/organizations/{orgID}", api.GetAssessmentHandler(assessments))
		pr.With(rbac.Require("assessment:create")).
			Post("/auditing/organizations/{orgID}", api.CreateAssessmentHandler(assessments))
		pr.With(rbac.Require("assessment:update")).
			Put("/auditing/organizations/{orgID}", api.UpdateAssessmentHandler(assessments))
		pr.With(rbac.Require("assessment:delete")).
			Delete("/auditing/organizations/{orgID}", api.DeleteAssessmentHandler(assessments))
		pr.With(rbac.Require("assessment:restore")).
			Post("/auditing/organizations/{orgID}/restore", api.RestoreAssessmentHandler(assessments))
		pr.With(rbac.Require("assessment:purge")).
			Delete("/auditing/organizations/{orgID}/purge", api.PurgeAssessmentHandler(assessments))
		pr.With(rbac.Require("assessment:view")).
			Get("/auditing/assessments", api.ListAssessmentsHandler(assessments))
		pr.With(rbac.Require("assessment:restore")).
			Get("/auditing/trash", api.ListTrashHandler(assessments))
		pr.With(rbac.Require("statistics:view")).
			Get("/auditing/statistics", api.StatisticsHandler(assessments))

		// Assessment templates (versioned, one active per type)
		pr.With(rbac.Require("template:manage")).
			Post("/templates", api.CreateTemplateHandler(templates))
		pr.With(rbac.Require("template:view")).
			Get("/templates", api.ListTemplatesHandler(templates))
		pr.With(rbac.Require("template:view")).
			Get("/templates/active/{type}", api.GetActiveTemplateHandler(templates))
		pr.With(rbac.Require("template:view")).
			Get("/templates/{templateID}", api.GetTemplateHandler(templates))
		pr.With(rbac.Require("template:manage")).
			Post("/templates/{templateID}/activate", api.ActivateTemplateHandler(templates))

		// Specialist workflow
		pr.With(rbac.Require("assignment:create")).
			Post("/assessments/{assessmentID}/assignments", api.AssignSpecialistHandler(assignments))
		pr.With(rbac.RequireAny("assignment:view", "assignment:create")).
			Get("/assignments", api.ListAssignmentsHandler(assignments))
		pr.With(rbac.Require("assignment:revoke")).
			Delete("/assignments/{assignmentID}", api.RevokeAssignmentHandler(assignments))
		pr.With(rbac.Require("comment:create")).
			Post("/assessments/{assessmentID}/comments", api.AddCommentHandler(assignments))
		pr.With(rbac.Require("comment:view")).
			Get("/assessments/{assessmentID}/comments", api.ListCommentsHandler(assignments))
		pr.With(rbac.Require("comment:resolve")).
			Post("/comments/{commentID}/resolve", api.ResolveCommentHandler(assignments))
		pr.With(rbac.Require("statistics:view")).
			Get("/workflow/stats", api.WorkflowStatsHandler(assignments))

		// Evidence files
		pr.With(rbac.Require("evidence:upload")).
			Post("/assessments/{assessmentID}/evidence", api.UploadEvidenceHandler(evidenceSvc))
		pr.With(rbac.Require("evidence:view")).
			Get("/evidence", api.ListEvidenceHandler(evidenceSvc))
		pr.With(rbac.Require("evidence:view")).
			Get("/evidence/{fileID}", api.GetEvidenceHandler(evidenceSvc))
		pr.With(rbac.Require("evidence:view")).
			Get("/evidence/{fileID}/download", api.DownloadEvidenceHandler(evidenceSvc))
		pr.With(rbac.Require("evidence:delete")).
			Delete("/evidence/{fileID}", api.DeleteEvidenceHandler(evidenceSvc))

		// Reports
		pr.With(rbac.Require("report:generate")).
			Post("/organizations/{orgID}/reports", api.GenerateReportHandler(reports))
		pr.With(rbac.Require("report:view")).
			Get("/organizations/{orgID}/reports", api.ListReportsHandler(reports))
		pr.With(rbac.Require("report:view")).
			Get("/reports/{reportID}", api.GetReportHandler(reports))
		pr.With(rbac.Require("report:delete")).
			Delete("/reports/{reportID}", api.DeleteReportHandler(reports))

		// Users (admin)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh)) // pass *sql.DB
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("users:update_role")).
			Put("/users/{userID}/role", api.AdminUpdateUserRoleHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Audit trail (admin)
		pr.With(rbac.Require("audit:view")).
			Get("/audit/trail", api.AuditTrailHandler(trail))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	slog.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func getenvOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
