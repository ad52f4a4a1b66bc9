package artifacts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/clearpath-sec/cloudscan/config"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
)

// MinioStore archives raw scanner reports in an object bucket, keyed by
// scan ID.
type MinioStore struct {
	client *minio.Client
	bucket string
	region string
}

func NewMinioStore(ctx context.Context, cfg config.ArtifactsConfig) (*MinioStore, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: cli, bucket: cfg.Bucket, region: cfg.Region}, nil
}

func (s *MinioStore) UploadScanArtifacts(ctx context.Context, scanID scanDomain.ScanID, paths []string) error {
	for _, path := range paths {
		key := fmt.Sprintf("scans/%d/%s", scanID, filepath.Base(path))
		opts := minio.PutObjectOptions{ContentType: contentTypeFor(path)}
		if _, err := s.client.FPutObject(ctx, s.bucket, key, path, opts); err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
	}
	return nil
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".json", ".ocsf":
		return "application/json"
	case ".html":
		return "text/html"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
