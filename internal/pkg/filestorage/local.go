package filestorage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// URLPrefix is the public path the stored files are served under
const URLPrefix = "/uploads"

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // root directory, one subdirectory per bucket
	baseURL  string // optional absolute URL prefix
	logger   zerolog.Logger
}

// NewLocalStorage creates a new LocalStorage instance.
// baseURL is optional; when set it is prepended to returned file URLs.
func NewLocalStorage(basePath, baseURL string, logger zerolog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}, nil
}

// BasePath returns the storage root, used to serve the files statically
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// Save implements FileStorage
func (ls *LocalStorage) Save(_ context.Context, bucket models.Bucket, fileHeader *multipart.FileHeader) (*models.StoredFile, error) {
	if fileHeader == nil {
		return nil, apperrors.NewBadRequestError("file is required")
	}
	if err := Validate(bucket, fileHeader.Filename, fileHeader.Size); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	dir := filepath.Join(ls.basePath, string(bucket))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create bucket directory: %w", err)
	}

	// Generate a unique filename to prevent collisions
	name := uuid.New().String() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	dstPath := filepath.Join(dir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	stored := &models.StoredFile{
		Bucket:      bucket,
		URL:         ls.baseURL + path.Join(URLPrefix, string(bucket), name),
		FileName:    fileHeader.Filename,
		Size:        written,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}

	ls.logger.Info().
		Str("bucket", string(bucket)).
		Str("filename", fileHeader.Filename).
		Str("url", stored.URL).
		Msg("File saved successfully")
	return stored, nil
}

// Delete implements FileStorage
func (ls *LocalStorage) Delete(_ context.Context, fileURL string) error {
	physicalPath, err := ls.resolve(fileURL)
	if err != nil {
		return err
	}

	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			ls.logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	ls.logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// resolve maps a stored URL back onto <basePath>/<bucket>/<name>
func (ls *LocalStorage) resolve(fileURL string) (string, error) {
	rel := strings.TrimPrefix(fileURL, ls.baseURL)
	rel = strings.TrimPrefix(rel, URLPrefix+"/")

	bucket, name, ok := strings.Cut(rel, "/")
	if !ok || name == "" || strings.Contains(name, "/") || name == "." || name == ".." {
		return "", apperrors.NewBadRequestError(fmt.Sprintf("invalid file path: %s", fileURL))
	}
	if _, known := Rules[models.Bucket(bucket)]; !known {
		return "", apperrors.NewBadRequestError(fmt.Sprintf("invalid file path: %s", fileURL))
	}
	return filepath.Join(ls.basePath, bucket, name), nil
}
