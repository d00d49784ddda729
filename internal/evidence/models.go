package evidence

import "time"

// File is the stored metadata for one uploaded evidence document. The bytes
// themselves live in the blob store under StorageKey.
type File struct {
	ID             string     `json:"id"`
	AssessmentID   int64      `json:"assessment_id"`
	DocumentType   string     `json:"document_type,omitempty"`
	FileName       string     `json:"file_name"`
	StorageKey     string     `json:"-"`
	FileSize       int64      `json:"file_size"`
	MimeType       string     `json:"mime_type"`
	Description    string     `json:"description,omitempty"`
	UploadedBy     string     `json:"uploaded_by"`
	AccessCount    int64      `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ListOpts struct {
	AssessmentID int64  // 0 = any
	DocumentType string // "" = any
	Limit        int
	Offset       int
}
