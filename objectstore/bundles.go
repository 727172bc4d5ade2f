// Package objectstore archives result bundles in an S3-compatible bucket.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/andreas-weise/individual-variation/config"
)

// Bundles uploads and downloads run bundles; each run is stored under its
// run id as object prefix.
type Bundles struct {
	Client     *minio.Client
	BucketName string
	log        logrus.FieldLogger
}

// New connects to the object store and creates the bucket if needed.
func New(ctx context.Context, cfg config.ObjectStore, log logrus.FieldLogger) (*Bundles, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("object store endpoint and bucket must be set")
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: "us-east-1",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket '%s' exists: %w", cfg.Bucket, err)
	}
	if !exists {
		log.WithField("bucket", cfg.Bucket).Info("creating bucket")
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.Bucket, err)
		}
	}
	return &Bundles{Client: client, BucketName: cfg.Bucket, log: log}, nil
}

// ObjectName maps a file of a bundle to its object name.
func ObjectName(runID, rel string) string {
	return path.Join(runID, filepath.ToSlash(rel))
}

// Upload stores every file below dir under the run id and returns the
// object names.
func (b *Bundles) Upload(ctx context.Context, runID, dir string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		name := ObjectName(runID, rel)
		ct := mime.TypeByExtension(filepath.Ext(p))
		if ct == "" {
			ct = "application/octet-stream"
		}
		info, err := b.Client.FPutObject(ctx, b.BucketName, name, p, minio.PutObjectOptions{ContentType: ct})
		if err != nil {
			return fmt.Errorf("failed to upload '%s' (bucket: %s): %w", name, b.BucketName, err)
		}
		b.log.WithFields(logrus.Fields{"object": name, "size": info.Size}).Debug("uploaded")
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Download fetches the bundle of a run into dst.
func (b *Bundles) Download(ctx context.Context, runID, dst string) error {
	prefix := runID + "/"
	n := 0
	for obj := range b.Client.ListObjects(ctx, b.BucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list bundle %s: %w", runID, obj.Err)
		}
		rel := strings.TrimPrefix(obj.Key, prefix)
		target := filepath.Join(dst, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := b.Client.FGetObject(ctx, b.BucketName, obj.Key, target, minio.GetObjectOptions{}); err != nil {
			return fmt.Errorf("failed to download '%s': %w", obj.Key, err)
		}
		n++
	}
	if n == 0 {
		return fmt.Errorf("bundle %s not found in bucket '%s'", runID, b.BucketName)
	}
	return nil
}
