// Package minio stores raw document snapshots in S3-compatible object
// storage, keyed by content hash.  The archive gives auditors the exact
// bytes a cached analysis was computed from.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/privlens/privlens/internal/config"
	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
)

// objectAPI abstracts the minio client for testing.
type objectAPI interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error)
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

// SnapshotStore archives document text under
// snapshots/<content_type>/<content_hash>.txt.  Writes are idempotent:
// content-addressed keys make re-archiving the same document a no-op
// overwrite with identical bytes.
type SnapshotStore struct {
	client objectAPI
	bucket string
	logger logging.Logger
}

// NewSnapshotStore connects to object storage and ensures the bucket exists.
func NewSnapshotStore(cfg config.MinIOConfig, log logging.Logger) (*SnapshotStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create object storage client")
	}

	s := &SnapshotStore{client: client, bucket: cfg.Bucket, logger: log.Named("snapshots")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to object storage")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create snapshot bucket")
		}
	}

	log.Info("object storage connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
	)
	return s, nil
}

// newSnapshotStoreWithAPI is the test seam.
func newSnapshotStoreWithAPI(api objectAPI, bucket string, log logging.Logger) *SnapshotStore {
	return &SnapshotStore{client: api, bucket: bucket, logger: log}
}

func objectKey(hash analysis.ContentHash, ct analysis.ContentType) string {
	return fmt.Sprintf("snapshots/%s/%s.txt", ct, hash)
}

// Archive stores the document text for the hash.
func (s *SnapshotStore) Archive(ctx context.Context, hash analysis.ContentHash, ct analysis.ContentType, content string) error {
	data := []byte(content)
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(hash, ct),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType: "text/plain; charset=utf-8",
			UserMetadata: map[string]string{
				"content-hash": string(hash),
				"content-type": string(ct),
			},
		},
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSnapshotArchiveFailed, "snapshot upload failed")
	}
	return nil
}

// Retrieve returns the archived document text for the hash.
func (s *SnapshotStore) Retrieve(ctx context.Context, hash analysis.ContentHash, ct analysis.ContentType) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(hash, ct), minio.GetObjectOptions{})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "snapshot download failed")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeNotFound, "snapshot not found").WithDetail(string(hash))
	}
	return string(data), nil
}

// Exists reports whether a snapshot is archived for the hash.
func (s *SnapshotStore) Exists(ctx context.Context, hash analysis.ContentHash, ct analysis.ContentType) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectKey(hash, ct), minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeInternal, "snapshot stat failed")
	}
	return true, nil
}
