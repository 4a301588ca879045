package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage archives source documents before they enter the ingestion
// pipeline, so the original upload can always be recovered even after
// the working copy has been converted and moved.
type Storage interface {
	// Upload stores a file and returns its storage key.
	Upload(ctx context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves a previously uploaded file by storage key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file by storage key.
	Delete(ctx context.Context, key string) error
}

// NewStorageFromEnv selects a backend from STORAGE_TYPE: "local"
// (default) uses STORAGE_LOCAL_PATH, "s3" uses the AWS_* variables.
func NewStorageFromEnv() (Storage, error) {
	backend := os.Getenv("STORAGE_TYPE")
	if backend == "" {
		backend = "local"
	}

	switch backend {
	case "local":
		path := os.Getenv("STORAGE_LOCAL_PATH")
		if path == "" {
			path = "./data/archive"
		}
		return NewLocalStorage(path)

	case "s3":
		bucket := os.Getenv("AWS_S3_BUCKET")
		if bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
		return NewS3Storage(S3Config{
			Bucket:    bucket,
			Region:    region,
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})

	default:
		return nil, fmt.Errorf("unknown storage type: %s", backend)
	}
}

// objectKey builds a unique, collision-free key for an archived file.
// Keys are prefixed with the first two ID characters to keep any single
// directory (or S3 listing prefix) from growing unbounded.
func objectKey(fileID uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for _, r := range []string{" ", "/", "\\"} {
		stem = strings.ReplaceAll(stem, r, "_")
	}
	id := fileID.String()
	return fmt.Sprintf("%s/%s_%s%s", id[:2], id, stem, ext)
}
