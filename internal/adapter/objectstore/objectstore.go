// Package objectstore uploads finished raster artifacts to an S3-compatible
// bucket.
package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/rain-grid-etl/internal/config"
	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// bucketClient is the subset of *minio.Client used here.
type bucketClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Uploader copies every artifact of a raster event into the bucket.
// It implements pipeline.Publisher.
type Uploader struct {
	client bucketClient
	bucket string
	logger *slog.Logger
}

// New connects to the configured MinIO endpoint. No request is made until
// EnsureBucket or Publish.
func New(cfg *config.Config, logger *slog.Logger) (*Uploader, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Uploader{client: client, bucket: cfg.MinioBucket, logger: logger}, nil
}

// Name identifies the publisher in logs and metrics.
func (u *Uploader) Name() string { return "objectstore" }

// EnsureBucket creates the bucket if it does not exist yet.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	ok, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if ok {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", u.bucket, err)
	}
	u.logger.Info("bucket created", "bucket", u.bucket)
	return nil
}

// Publish uploads each artifact under <month>/<strategy>/<file name>. A
// rerun for the same month and strategy overwrites the earlier objects.
func (u *Uploader) Publish(ctx context.Context, event domain.RasterEvent) error {
	for _, a := range event.Artifacts {
		key := objectKey(event, a.Path)
		opts := minio.PutObjectOptions{
			ContentType: contentType(a.Path),
			UserMetadata: map[string]string{
				"run-id": event.RunID,
				"kind":   a.Kind,
			},
		}
		if _, err := u.client.FPutObject(ctx, u.bucket, key, a.Path, opts); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		u.logger.Debug("artifact uploaded", "bucket", u.bucket, "key", key)
	}
	return nil
}

func objectKey(event domain.RasterEvent, file string) string {
	return path.Join(event.Month, event.Strategy, filepath.Base(file))
}

func contentType(file string) string {
	switch {
	case strings.HasSuffix(file, ".json"):
		return "application/json"
	case strings.HasSuffix(file, ".asc"), strings.HasSuffix(file, ".prj"):
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
