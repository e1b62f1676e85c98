// Package storage provides access to the optional object-storage source
// of raw legal documents.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"qanoon-go/internal/config"
	"qanoon-go/pkg/log"
)

// MinioClient is the global MinIO client, nil unless InitMinIO has run.
var MinioClient *minio.Client

// InitMinIO initialises the MinIO client and verifies the source bucket
// exists. The indexer only reads, so a missing bucket is fatal rather
// than created.
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("failed to initialise MinIO client", err)
	}

	ctx := context.Background()
	exists, err := MinioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		log.Fatal("failed to check MinIO bucket", err)
	}
	if !exists {
		log.Fatalf("MinIO bucket '%s' does not exist", cfg.BucketName)
	}

	log.Infof("MinIO client initialised, bucket '%s' available", cfg.BucketName)
}

// PullDocuments downloads every PDF object in the bucket into destDir so
// the indexer can process remote and local sources uniformly. An object
// that fails to download is skipped with a warning.
func PullDocuments(ctx context.Context, cfg config.MinIOConfig, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, err
	}

	pulled := 0
	for object := range MinioClient.ListObjects(ctx, cfg.BucketName, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return pulled, object.Err
		}
		if !strings.HasSuffix(strings.ToLower(object.Key), ".pdf") {
			continue
		}

		if err := pullObject(ctx, cfg.BucketName, object.Key, destDir); err != nil {
			log.Warnf("failed to pull object '%s', skipping: %v", object.Key, err)
			continue
		}
		pulled++
	}
	return pulled, nil
}

func pullObject(ctx context.Context, bucket, key, destDir string) error {
	obj, err := MinioClient.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()

	destPath := filepath.Join(destDir, filepath.Base(key))
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, obj); err != nil {
		return err
	}
	return nil
}
