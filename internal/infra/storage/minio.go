package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/medscan/internal/config"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// Store archives uploaded scans in a MinIO/S3 bucket.
type Store struct {
	client *minio.Client
	bucket string
	// presign > 0 makes Put return a presigned GET URL instead of the plain
	// object URL (private buckets).
	presign time.Duration
}

// New connects to cfg.Endpoint and creates the bucket when missing.
func New(ctx context.Context, cfg config.MinioConfig) (*Store, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	// pastikan bucket ada
	found, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("minio bucket lookup: %w", err)
	}
	if !found {
		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("minio make bucket %s: %w", cfg.BucketName, err)
		}
	}
	return &Store{client: cli, bucket: cfg.BucketName, presign: cfg.PresignExpiry}, nil
}

// Check reports whether the bucket is reachable.
func (s *Store) Check(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && !found {
		err = fmt.Errorf("bucket %s missing", s.bucket)
	}
	return err
}

// Put uploads the scan under key and returns where it can be fetched.
func (s *Store) Put(ctx context.Context, key string, up domain.Upload) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:  contentType(up),
		UserMetadata: map[string]string{"original-name": up.FileName},
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(up.Data), int64(len(up.Data)), opts); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	if s.presign <= 0 {
		// URL publik (jika bucket public)
		return s.client.EndpointURL().JoinPath(s.bucket, key).String(), nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presign, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes an archived scan. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// contentType prefers what the client sent, then guesses from the extension.
func contentType(up domain.Upload) string {
	if ct := strings.TrimSpace(up.ContentType); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(up.FileName)) {
	case ".dcm", ".dicom":
		return "application/dicom"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
