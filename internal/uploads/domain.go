package uploads

import "time"

// Status values for an upload's processing lifecycle.
const (
	StatusPending   = "PENDING"
	StatusProcessed = "PROCESSED"
	StatusFailed    = "FAILED"
)

// Upload is the metadata record for a file stored in external blob storage.
// The blob itself never passes through this service.
type Upload struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	UploaderID  string    `json:"uploader_id"`
	FileName    string    `json:"file_name"`
	StoragePath string    `json:"storage_path"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
