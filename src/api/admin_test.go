package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminDashboardDecode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"total_global_documents": 14,
			"total_personal_documents": 52,
			"active_users": 9,
			"total_queries_today": 131,
			"popular_documents": [
				{"document_id":"gdoc1","filename":"charte.pdf","query_count":41,"last_accessed":"2025-03-01T11:00:00"}
			],
			"recent_uploads": [
				{"document_id":"gdoc2","filename":"pare-feu.docx","uploaded_by":"admin","upload_date":"2025-03-01T08:15:00","file_size":240128}
			]
		}`))
	})

	client := testClient(t, mux)
	stats, err := client.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, stats.TotalGlobalDocuments)
	assert.Equal(t, 131, stats.TotalQueriesToday)
	require.Len(t, stats.PopularDocuments, 1)
	assert.Equal(t, 41, stats.PopularDocuments[0].QueryCount)
	require.Len(t, stats.RecentUploads, 1)
	assert.Equal(t, int64(240128), stats.RecentUploads[0].FileSize)
}

func TestUploadGlobalDocumentFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/upload-global", func(w http.ResponseWriter, r *http.Request) {
		// The backend reads description and tags from the query string.
		assert.Equal(t, "Charte de sécurité 2025", r.URL.Query().Get("description"))
		assert.Equal(t, "politique,sécurité", r.URL.Query().Get("tags"))
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Error("parse multipart form:", err)
			return
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Error("missing file part:", err)
			return
		}
		assert.Equal(t, "charte.pdf", header.Filename)

		json.NewEncoder(w).Encode(UploadReceipt{
			DocumentID: "global_doc_a1b2c3d4",
			Filename:   "charte.pdf",
			Message:    "Document global téléchargé avec succès. Traitement en cours...",
			UploadedBy: "admin",
		})
	})

	client := testClient(t, mux)
	path := writeTempFile(t, "charte.pdf", "%PDF-1.4 fake")

	receipt, err := client.UploadGlobalDocument(context.Background(), path,
		"Charte de sécurité 2025", []string{"politique", "sécurité"})
	require.NoError(t, err)
	assert.Equal(t, "global_doc_a1b2c3d4", receipt.DocumentID)
	assert.Equal(t, "admin", receipt.UploadedBy)
}

func TestGlobalDocumentListAndDelete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/documents/global", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"documents":[{"document_id":"gdoc1","filename":"charte.pdf","chunks":8,"total_length":40210,"status":"ready","uploaded_by":"admin"}],"total":1}`))
	})
	mux.HandleFunc("DELETE /api/admin/documents/global/gdoc1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message":    "Document global gdoc1 supprimé avec succès",
			"deleted_by": "admin",
		})
	})

	client := testClient(t, mux)
	documents, err := client.ListGlobalDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, "admin", documents[0].UploadedBy)

	require.NoError(t, client.DeleteGlobalDocument(context.Background(), "gdoc1"))
}
