package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/flyerkit/backend/internal/domain"
	"google.golang.org/api/option"
)

// GCSStorage keeps files as objects in a Google Cloud Storage bucket
type GCSStorage struct {
	client     *storage.Client
	bucket     *storage.BucketHandle
	bucketName string
}

// NewGCSStorage creates a bucket-backed storage. An empty credentialsFile uses
// application default credentials.
func NewGCSStorage(ctx context.Context, bucketName, credentialsFile string) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing storage client: %w", err)
	}

	return &GCSStorage{
		client:     client,
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
	}, nil
}

// Save uploads r as dir/name and returns its public URL
func (s *GCSStorage) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	if err := validateObjectName(dir, name); err != nil {
		return "", err
	}

	objectName := path.Join(dir, name)
	wc := s.bucket.Object(objectName).NewWriter(ctx)
	wc.ContentType = mime.TypeByExtension(path.Ext(name))

	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", fmt.Errorf("%w: uploading %s: %v", domain.ErrStorageFailure, objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("%w: closing %s: %v", domain.ErrStorageFailure, objectName, err)
	}

	log.Printf("[GCS] Uploaded gs://%s/%s", s.bucketName, objectName)
	return s.publicPrefix() + objectName, nil
}

// Open streams an object back by the public URL Save returned
func (s *GCSStorage) Open(ctx context.Context, publicURL string) (io.ReadCloser, error) {
	objectName, ok := strings.CutPrefix(publicURL, s.publicPrefix())
	if !ok || objectName == "" {
		return nil, fmt.Errorf("%w: %q is not an object of bucket %s", domain.ErrInvalidRequest, publicURL, s.bucketName)
	}

	rc, err := s.bucket.Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrStorageFailure, objectName, err)
	}
	return rc, nil
}

// Delete removes the object dir/name
func (s *GCSStorage) Delete(ctx context.Context, dir, name string) error {
	if err := validateObjectName(dir, name); err != nil {
		return err
	}

	objectName := path.Join(dir, name)
	err := s.bucket.Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: deleting %s: %v", domain.ErrStorageFailure, objectName, err)
	}
	log.Printf("[GCS] Deleted gs://%s/%s", s.bucketName, objectName)
	return nil
}

func (s *GCSStorage) publicPrefix() string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/", s.bucketName)
}

// Close releases the underlying client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
