package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

const mb = 1 << 20

// Rule limits what a bucket accepts
type Rule struct {
	MaxSize    int64
	Extensions []string
}

// Rules holds the upload policy of every bucket
var Rules = map[models.Bucket]Rule{
	models.BucketProfileImages: {
		MaxSize:    5 * mb,
		Extensions: []string{"jpg", "jpeg", "png", "gif"},
	},
	models.BucketNoticeAttachments: {
		MaxSize:    10 * mb,
		Extensions: []string{"jpg", "jpeg", "png", "pdf", "doc", "docx"},
	},
	models.BucketMessageAttachments: {
		MaxSize:    25 * mb,
		Extensions: []string{"jpg", "jpeg", "png", "pdf", "doc", "docx", "xls", "xlsx"},
	},
}

// Validate checks a file name and size against the bucket rule
func Validate(bucket models.Bucket, fileName string, size int64) error {
	rule, ok := Rules[bucket]
	if !ok {
		return apperrors.NewBadRequestError(fmt.Sprintf("unknown bucket %q", bucket))
	}
	if size <= 0 {
		return apperrors.NewBadRequestError("file is empty")
	}
	if size > rule.MaxSize {
		return apperrors.NewBadRequestError(fmt.Sprintf("file exceeds %dMB limit", rule.MaxSize/mb))
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	for _, allowed := range rule.Extensions {
		if ext == allowed {
			return nil
		}
	}
	return apperrors.NewBadRequestError(fmt.Sprintf("file type .%s is not allowed, expected one of %s",
		ext, strings.Join(rule.Extensions, ", ")))
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Save validates the upload against the bucket rule and stores it
	Save(ctx context.Context, bucket models.Bucket, fileHeader *multipart.FileHeader) (*models.StoredFile, error)

	// Delete removes a previously stored file by its URL. Missing files are not an error.
	Delete(ctx context.Context, fileURL string) error
}
