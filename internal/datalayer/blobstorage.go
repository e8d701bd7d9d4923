package datalayer

import (
	"context"
	"fmt"
	"io"

	"github.com/glizzus/demovoice/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type PutOptions struct {
	Size        int64
	ContentType string
}

// BlobStorage stores objects by key.
type BlobStorage interface {
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error
}

type MinioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioStorage(cfg *config.MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Username, cfg.Password, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", cfg.Endpoint, err)
	}

	return &MinioStorage{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func NewMinioStorageFromEnv() (*MinioStorage, error) {
	cfg, err := config.NewMinioConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewMinioStorage(cfg)
}

func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	// If the bucket is already owned, succeed
	if err != nil {
		if minio.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

var _ BlobStorage = (*MinioStorage)(nil)

func (s *MinioStorage) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, data, opts.Size, minio.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	return err
}

// MemoryStorage keeps objects in memory, keyed by object key.
type MemoryStorage struct {
	Objects map[string]MemoryObject
}

type MemoryObject struct {
	Data        []byte
	ContentType string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Objects: make(map[string]MemoryObject)}
}

var _ BlobStorage = (*MemoryStorage)(nil)

func (s *MemoryStorage) Put(_ context.Context, key string, data io.Reader, opts PutOptions) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if opts.Size >= 0 && int64(len(b)) != opts.Size {
		return fmt.Errorf("object %s: expected %d bytes, got %d", key, opts.Size, len(b))
	}
	s.Objects[key] = MemoryObject{Data: b, ContentType: opts.ContentType}
	return nil
}
