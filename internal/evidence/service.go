package evidence

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/certicredia/certicredia-platform/internal/storage"
)

var (
	ErrNotFound        = errors.New("evidence file not found")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file exceeds size limit")
)

// allowedMimeTypes is the document whitelist for evidence uploads.
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"image/jpeg":                   true,
	"image/png":                    true,
	"image/gif":                    true,
	"text/plain":                   true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
}

// Service stores evidence metadata in SQL and bytes in a blob store.
type Service struct {
	db       *sql.DB
	blobs    storage.BlobStore
	maxBytes int64
}

func NewService(db *sql.DB, blobs storage.BlobStore, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	return &Service{db: db, blobs: blobs, maxBytes: maxBytes}
}

// MaxBytes is the configured upload ceiling, exposed so handlers can cap
// request bodies before reading them.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// storageKey builds the on-disk key: upload time, random suffix, original
// extension. The original name is kept only as metadata.
func storageKey(fileName string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("evidence/%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(buf), filepath.Ext(fileName)), nil
}

type UploadInput struct {
	AssessmentID int64
	DocumentType string
	FileName     string
	MimeType     string
	Size         int64
	Description  string
	UploadedBy   string
}

// Upload validates and stores one evidence file.
func (s *Service) Upload(ctx context.Context, in UploadInput, r io.Reader) (File, error) {
	if !allowedMimeTypes[in.MimeType] {
		return File{}, ErrUnsupportedType
	}
	if in.Size > s.maxBytes {
		return File{}, ErrTooLarge
	}

	key, err := storageKey(in.FileName)
	if err != nil {
		return File{}, err
	}
	if _, err := s.blobs.Put(key, io.LimitReader(r, s.maxBytes)); err != nil {
		return File{}, err
	}

	f := File{
		ID:           uuid.NewString(),
		AssessmentID: in.AssessmentID,
		DocumentType: in.DocumentType,
		FileName:     in.FileName,
		StorageKey:   key,
		FileSize:     in.Size,
		MimeType:     in.MimeType,
		Description:  in.Description,
		UploadedBy:   in.UploadedBy,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evidence_files
		 (id,assessment_id,document_type,file_name,storage_key,file_size,mime_type,description,uploaded_by,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		f.ID, f.AssessmentID, f.DocumentType, f.FileName, f.StorageKey, f.FileSize,
		f.MimeType, f.Description, f.UploadedBy, f.CreatedAt.Unix())
	if err != nil {
		// metadata failed; don't leave the orphan blob behind
		_ = s.blobs.Delete(key)
		return File{}, err
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id string) (File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,assessment_id,document_type,file_name,storage_key,file_size,mime_type,description,uploaded_by,access_count,last_accessed_at,created_at
		 FROM evidence_files WHERE id=$1`, id)
	return scanFile(row)
}

// Open returns the file metadata and a reader over its bytes, recording the
// access.
func (s *Service) Open(ctx context.Context, id string) (File, io.ReadCloser, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return File{}, nil, err
	}
	rc, err := s.blobs.Get(f.StorageKey)
	if err != nil {
		return File{}, nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE evidence_files SET access_count=access_count+1, last_accessed_at=$1 WHERE id=$2`,
		time.Now().Unix(), id)
	if err != nil {
		rc.Close()
		return File{}, nil, err
	}
	return f, rc, nil
}

func (s *Service) List(ctx context.Context, opts ListOpts) ([]File, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT id,assessment_id,document_type,file_name,storage_key,file_size,mime_type,description,uploaded_by,access_count,last_accessed_at,created_at
	      FROM evidence_files WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if opts.AssessmentID != 0 {
		q += ` AND assessment_id=` + arg(opts.AssessmentID)
	}
	if opts.DocumentType != "" {
		q += ` AND document_type=` + arg(opts.DocumentType)
	}
	q += ` ORDER BY created_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes metadata and blob. The blob removal is best-effort after the
// row is gone.
func (s *Service) Delete(ctx context.Context, id string) error {
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM evidence_files WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return s.blobs.Delete(f.StorageKey)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (File, error) {
	var f File
	var lastAccess sql.NullInt64
	var created int64
	err := row.Scan(&f.ID, &f.AssessmentID, &f.DocumentType, &f.FileName, &f.StorageKey,
		&f.FileSize, &f.MimeType, &f.Description, &f.UploadedBy, &f.AccessCount, &lastAccess, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, err
	}
	if lastAccess.Valid {
		t := time.Unix(lastAccess.Int64, 0).UTC()
		f.LastAccessedAt = &t
	}
	f.CreatedAt = time.Unix(created, 0).UTC()
	return f, nil
}
