package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Processing states the backend reports for a document, both while polling
// an upload and in the document list.
const (
	StatusUploading  = "uploading"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

// Document represents one indexed document owned by the current user, or by
// the global corpus when listed through the admin endpoints.
type Document struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	Chunks      int    `json:"chunks"`
	TotalLength int    `json:"total_length"`
	Status      string `json:"status"`
	UploadedBy  string `json:"uploaded_by,omitempty"`
}

// DocumentMetadata is the per-file detail block attached to upload responses
// and status reports.
type DocumentMetadata struct {
	Filename         string    `json:"filename"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	UploadDate       Timestamp `json:"upload_date"`
	ProcessingStatus string    `json:"processing_status,omitempty"`
}

// UploadStatus is the backend's processing report for one uploaded document.
type UploadStatus struct {
	DocumentID string            `json:"document_id"`
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Metadata   *DocumentMetadata `json:"metadata,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// UploadPolicy mirrors the backend's declared upload constraints. Enforce
// controls whether the client rejects files before sending them; the server
// stays the authority either way.
type UploadPolicy struct {
	Extensions    []string
	MaxFileSizeMB int
	Enforce       bool
}

// DefaultUploadPolicy returns the constraints the backend declares, used
// until the supported-types endpoint has been consulted.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		Extensions:    []string{".pdf", ".docx", ".txt", ".png", ".jpg", ".jpeg"},
		MaxFileSizeMB: 50,
	}
}

// Allows validates a candidate file against the policy. It returns nil when
// enforcement is off; errors carry the user-visible French message.
func (p UploadPolicy) Allows(filename string, size int64) error {
	if !p.Enforce {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	supported := false
	allowed := make([]string, 0, len(p.Extensions))
	for _, candidate := range p.Extensions {
		if ext == candidate {
			supported = true
		}
		allowed = append(allowed, strings.TrimPrefix(candidate, "."))
	}
	if !supported {
		// Same phrasing as the backend's own rejection.
		return &ValidationError{
			Message: fmt.Sprintf("Type de fichier non supporté. Extensions autorisées: %s", strings.Join(allowed, ", ")),
		}
	}
	if p.MaxFileSizeMB > 0 && size > int64(p.MaxFileSizeMB)*1024*1024 {
		return &ValidationError{
			Message: fmt.Sprintf("Fichier trop volumineux. Taille maximum: %d MB", p.MaxFileSizeMB),
		}
	}
	return nil
}
