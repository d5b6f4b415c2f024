// Package shardstore uploads finished shard files to S3 compatible object
// storage.
package shardstore

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JonMunkholm/csvutil/internal/config"
	"github.com/JonMunkholm/csvutil/internal/logging"
	"github.com/JonMunkholm/csvutil/internal/pipeline"
)

// Uploader is the part of *minio.Client the store needs.
type Uploader interface {
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Store puts shards under Prefix in Bucket.
type Store struct {
	client Uploader
	bucket string
	prefix string
	base   string
}

var _ pipeline.Sink = (*Store)(nil)

// New returns a store that names objects <prefix>/<base>-00001.csv, ...
func New(client Uploader, bucket, prefix, base string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix, base: base}
}

// NewFromConfig connects a minio client using the store settings.
func NewFromConfig(cfg config.StoreConfig, base string) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return New(client, cfg.Bucket, cfg.Prefix, base), nil
}

// ObjectName returns the key shard num is stored under.
func (s *Store) ObjectName(num int) string {
	return path.Join(s.prefix, pipeline.DirSink{Base: s.base}.ShardName(num))
}

// Put uploads the shard and removes the local file. The local file is kept
// when the upload fails so the shard can be retried.
func (s *Store) Put(ctx context.Context, localPath string, num int) (string, error) {
	object := s.ObjectName(num)
	info, err := s.client.FPutObject(ctx, s.bucket, object, localPath, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload shard to %s/%s: %w", s.bucket, object, err)
	}

	if err := os.Remove(localPath); err != nil {
		logging.FromContext(ctx).Warn("uploaded shard not removed", "path", localPath, "error", err)
	}

	logging.FromContext(ctx).Info("uploaded shard", "bucket", s.bucket, "object", object, "size", info.Size)
	return "s3://" + s.bucket + "/" + object, nil
}
