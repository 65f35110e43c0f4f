package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"sensechat/src/models"
)

type documentListResponse struct {
	Documents      []models.Document `json:"documents"`
	TotalDocuments int               `json:"total_documents"`
	TotalChunks    int               `json:"total_chunks"`
}

type supportedTypesResponse struct {
	SupportedExtensions []string `json:"supported_extensions"`
	MaxFileSizeMB       int      `json:"max_file_size_mb"`
}

// UploadReceipt acknowledges an accepted upload. Processing continues
// asynchronously under DocumentID; poll UploadStatus to follow it.
type UploadReceipt struct {
	DocumentID string                   `json:"document_id"`
	Message    string                   `json:"message"`
	Metadata   *models.DocumentMetadata `json:"metadata,omitempty"`
	Filename   string                   `json:"filename,omitempty"`
	UploadedBy string                   `json:"uploaded_by,omitempty"`
}

// UploadDocument sends a file into the current user's corpus.
func (c *Client) UploadDocument(ctx context.Context, filePath string) (UploadReceipt, error) {
	var receipt UploadReceipt
	if err := c.uploadFile(ctx, "/upload", filePath, &receipt); err != nil {
		return UploadReceipt{}, err
	}
	return receipt, nil
}

// UploadStatus fetches the current processing report for an upload.
func (c *Client) UploadStatus(ctx context.Context, documentID string) (models.UploadStatus, error) {
	var status models.UploadStatus
	if err := c.getJSON(ctx, "/upload/status/"+url.PathEscape(documentID), &status); err != nil {
		return models.UploadStatus{}, fmt.Errorf("failed to fetch status of '%s': %w", documentID, err)
	}
	return status, nil
}

// SupportedTypes returns the upload constraints the backend declares.
// Enforcement stays a client-side configuration decision.
func (c *Client) SupportedTypes(ctx context.Context) (models.UploadPolicy, error) {
	var resp supportedTypesResponse
	if err := c.getJSON(ctx, "/upload/supported-types", &resp); err != nil {
		return models.UploadPolicy{}, fmt.Errorf("failed to fetch supported types: %w", err)
	}
	policy := models.UploadPolicy{MaxFileSizeMB: resp.MaxFileSizeMB}
	for _, ext := range resp.SupportedExtensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		policy.Extensions = append(policy.Extensions, strings.ToLower(ext))
	}
	return policy, nil
}

// ListDocuments returns the current user's indexed documents.
func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var resp documentListResponse
	if err := c.getJSON(ctx, "/documents", &resp); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return resp.Documents, nil
}

// DeleteDocument removes a document from the current user's corpus.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/documents/"+url.PathEscape(documentID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete document '%s': %w", documentID, err)
	}
	return nil
}
