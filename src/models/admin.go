package models

// DashboardStats aggregates the numbers shown on the admin landing tab.
type DashboardStats struct {
	TotalGlobalDocuments   int               `json:"total_global_documents"`
	TotalPersonalDocuments int               `json:"total_personal_documents"`
	ActiveUsers            int               `json:"active_users"`
	TotalQueriesToday      int               `json:"total_queries_today"`
	PopularDocuments       []PopularDocument `json:"popular_documents"`
	RecentUploads          []RecentUpload    `json:"recent_uploads"`
}

// PopularDocument ranks a document by how often retrieval hit it.
type PopularDocument struct {
	DocumentID   string    `json:"document_id"`
	Filename     string    `json:"filename"`
	QueryCount   int       `json:"query_count"`
	LastAccessed Timestamp `json:"last_accessed"`
}

// RecentUpload is one entry of the dashboard's latest-uploads feed.
type RecentUpload struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	UploadedBy string    `json:"uploaded_by"`
	UploadDate Timestamp `json:"upload_date"`
	FileSize   int64     `json:"file_size"`
}
