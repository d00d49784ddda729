package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/certicredia/certicredia-platform/internal/auth/middleware"
	"github.com/certicredia/certicredia-platform/internal/evidence"
)

// POST /assessments/{assessmentID}/evidence  (multipart: file=, document_type=, description=)
func UploadEvidenceHandler(svc *evidence.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assessmentID, ok := assessmentIDParam(r)
		if !ok {
			http.Error(w, "bad assessment id", http.StatusBadRequest)
			return
		}

		// A little slack over the validated limit for multipart framing.
		r.Body = http.MaxBytesReader(w, r.Body, svc.MaxBytes()+1<<20)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "file too large or bad multipart body", http.StatusRequestEntityTooLarge)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		mime := hdr.Header.Get("Content-Type")
		if i := strings.Index(mime, ";"); i >= 0 {
			mime = strings.TrimSpace(mime[:i])
		}

		meta, err := svc.Upload(r.Context(), evidence.UploadInput{
			AssessmentID: assessmentID,
			DocumentType: r.FormValue("document_type"),
			FileName:     hdr.Filename,
			MimeType:     mime,
			Size:         hdr.Size,
			Description:  r.FormValue("description"),
			UploadedBy:   authmw.SubjectFromContext(r.Context()),
		}, f)
		switch {
		case errors.Is(err, evidence.ErrUnsupportedType):
			http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
			return
		case errors.Is(err, evidence.ErrTooLarge):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(meta)
	}
}

// GET /evidence/{fileID} -> metadata only
func GetEvidenceHandler(svc *evidence.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := svc.Get(r.Context(), chi.URLParam(r, "fileID"))
		if errors.Is(err, evidence.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(meta)
	}
}

// GET /evidence/{fileID}/download -> streams bytes, bumps access counter
func DownloadEvidenceHandler(svc *evidence.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, rc, err := svc.Open(r.Context(), chi.URLParam(r, "fileID"))
		if errors.Is(err, evidence.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", meta.MimeType)
		w.Header().Set("Content-Length", strconv.FormatInt(meta.FileSize, 10))
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", meta.FileName))
		_, _ = io.Copy(w, rc)
	}
}

// GET /evidence?assessment_id=&document_type=
func ListEvidenceHandler(svc *evidence.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := evidence.ListOpts{
			DocumentType: strings.TrimSpace(r.URL.Query().Get("document_type")),
			Limit:        parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:       parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		if s := r.URL.Query().Get("assessment_id"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				http.Error(w, "bad assessment_id", http.StatusBadRequest)
				return
			}
			opts.AssessmentID = id
		}
		list, err := svc.List(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []evidence.File{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// DELETE /evidence/{fileID}
func DeleteEvidenceHandler(svc *evidence.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.Delete(r.Context(), chi.URLParam(r, "fileID"))
		if errors.Is(err, evidence.ErrNotFound) {
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
