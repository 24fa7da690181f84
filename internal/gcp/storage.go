package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/careercopilot/internal/models"
)

// GCSBlobStore reads and deletes uploaded objects in Cloud Storage.
type GCSBlobStore struct {
	client *storage.Client
}

func NewGCSBlobStore(client *storage.Client) *GCSBlobStore {
	return &GCSBlobStore{client: client}
}

func (s *GCSBlobStore) Read(ctx context.Context, bucket, path string) ([]byte, error) {
	rc, err := s.client.Bucket(bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, path, objectNotFound(err))
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, path, err)
	}
	return data, nil
}

// Delete removes the object. A missing object is reported as models.ErrNotFound.
func (s *GCSBlobStore) Delete(ctx context.Context, bucket, path string) error {
	if err := s.client.Bucket(bucket).Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", bucket, path, objectNotFound(err))
	}
	return nil
}

func objectNotFound(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %w", models.ErrNotFound, err)
	}
	return err
}
