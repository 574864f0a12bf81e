package models

// Bucket names the storage namespace of an uploaded file
type Bucket string

const (
	BucketProfileImages      Bucket = "profile-images"
	BucketNoticeAttachments  Bucket = "notice-attachments"
	BucketMessageAttachments Bucket = "message-attachments"
)

// StoredFile describes a file accepted into a bucket
type StoredFile struct {
	Bucket      Bucket `json:"bucket"`
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
}
