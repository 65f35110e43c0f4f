package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensechat/src/models"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestUploadDocumentMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Error("parse multipart form:", err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Error("missing file part:", err)
			return
		}
		defer file.Close()
		assert.Equal(t, "politique.pdf", header.Filename)

		json.NewEncoder(w).Encode(UploadReceipt{
			DocumentID: "doc123",
			Message:    "Document 'politique.pdf' téléchargé avec succès. Traitement en cours...",
			Metadata: &models.DocumentMetadata{
				Filename:         "politique.pdf",
				FileType:         ".pdf",
				FileSize:         int64(header.Size),
				ProcessingStatus: models.StatusProcessing,
			},
		})
	})

	client := testClient(t, mux)
	path := writeTempFile(t, "politique.pdf", "%PDF-1.4 fake")

	receipt, err := client.UploadDocument(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "doc123", receipt.DocumentID)
	require.NotNil(t, receipt.Metadata)
	assert.Equal(t, models.StatusProcessing, receipt.Metadata.ProcessingStatus)
}

func TestUploadMissingFile(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("an unreadable file must never reach the backend")
	}))

	_, err := client.UploadDocument(context.Background(), "/nonexistent/politique.pdf")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.UserMessage(), "Impossible d'ouvrir le fichier")
}

func TestUploadStatusFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/upload/status/doc123", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.UploadStatus{
			DocumentID: "doc123",
			Status:     models.StatusProcessing,
			Message:    "Création des chunks et embeddings...",
		})
	})

	client := testClient(t, mux)
	status, err := client.UploadStatus(context.Background(), "doc123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, status.Status)
	assert.Equal(t, "Création des chunks et embeddings...", status.Message)
}

func TestSupportedTypesNormalizesExtensions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/upload/supported-types", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"supported_extensions": []string{"pdf", "DOCX", ".txt"},
			"max_file_size_mb":     50,
		})
	})

	client := testClient(t, mux)
	policy, err := client.SupportedTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{".pdf", ".docx", ".txt"}, policy.Extensions)
	assert.Equal(t, 50, policy.MaxFileSizeMB)
	assert.False(t, policy.Enforce, "enforcement stays a client decision")
}

func TestListAndDeleteDocuments(t *testing.T) {
	deleted := false
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/documents", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"documents": []models.Document{
				{DocumentID: "doc123", Filename: "politique.pdf", Chunks: 12, TotalLength: 54321, Status: models.StatusReady},
			},
			"total_documents": 1,
			"total_chunks":    12,
		})
	})
	mux.HandleFunc("DELETE /api/documents/doc123", func(w http.ResponseWriter, r *http.Request) {
		deleted = true
		json.NewEncoder(w).Encode(map[string]string{"message": "Document doc123 supprimé avec succès"})
	})

	client := testClient(t, mux)
	documents, err := client.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, 12, documents[0].Chunks)

	require.NoError(t, client.DeleteDocument(context.Background(), "doc123"))
	assert.True(t, deleted)
}
