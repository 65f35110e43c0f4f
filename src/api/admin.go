package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"sensechat/src/models"
)

type globalDocumentListResponse struct {
	Documents []models.Document `json:"documents"`
	Total     int               `json:"total"`
}

// AdminDashboard returns the aggregate numbers for the admin landing tab.
func (c *Client) AdminDashboard(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.getJSON(ctx, "/admin/dashboard", &stats); err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return stats, nil
}

// ListGlobalDocuments returns the shared corpus visible to every user.
func (c *Client) ListGlobalDocuments(ctx context.Context) ([]models.Document, error) {
	var resp globalDocumentListResponse
	if err := c.getJSON(ctx, "/admin/documents/global", &resp); err != nil {
		return nil, fmt.Errorf("failed to list global documents: %w", err)
	}
	return resp.Documents, nil
}

// UploadGlobalDocument sends a file into the shared corpus, with an
// optional description and comma-joined tags. The backend reads both from
// the query string, not the multipart body.
func (c *Client) UploadGlobalDocument(ctx context.Context, filePath, description string, tags []string) (UploadReceipt, error) {
	params := url.Values{}
	if description != "" {
		params.Set("description", description)
	}
	if len(tags) > 0 {
		params.Set("tags", strings.Join(tags, ","))
	}
	path := "/admin/upload-global"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var receipt UploadReceipt
	if err := c.uploadFile(ctx, path, filePath, &receipt); err != nil {
		return UploadReceipt{}, err
	}
	return receipt, nil
}

// DeleteGlobalDocument removes a document from the shared corpus.
func (c *Client) DeleteGlobalDocument(ctx context.Context, documentID string) error {
	path := "/admin/documents/global/" + url.PathEscape(documentID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete global document '%s': %w", documentID, err)
	}
	return nil
}
