package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
)

// FileStorage relays user avatars to an S3 compatible bucket.
type FileStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewFileStorage(ctx context.Context, endpoint, publicURL, accessKey, secretKey, bucket string, secure bool) (*FileStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
		if err := client.SetBucketPolicy(ctx, bucket, policy); err != nil {
			zap.L().Warn("set bucket policy", zap.String("bucket", bucket), zap.Error(err))
		}
		zap.L().Info("bucket created", zap.String("bucket", bucket))
	}

	if publicURL == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint
	}

	return &FileStorage{client: client, bucket: bucket, publicURL: publicURL}, nil
}

// UploadAvatar stores the file under a fresh name and returns its public URL.
func (s *FileStorage) UploadAvatar(ctx context.Context, originalName string, size int64, r io.Reader, contentType string) (string, error) {
	name := "avatars/" + ObjectName(originalName)
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", apperr.Upload(err)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.publicURL, "/"), s.bucket, name), nil
}

// DeleteAvatar removes an avatar previously returned by UploadAvatar. URLs
// that do not point into the bucket are ignored.
func (s *FileStorage) DeleteAvatar(ctx context.Context, url string) error {
	name, ok := s.objectKey(url)
	if !ok {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return apperr.Upload(err)
	}
	return nil
}

func (s *FileStorage) objectKey(url string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/", strings.TrimRight(s.publicURL, "/"), s.bucket)
	name, ok := strings.CutPrefix(url, prefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// ObjectName keeps the extension of original and replaces the rest with a uuid.
func ObjectName(original string) string {
	ext := strings.ToLower(path.Ext(original))
	return uuid.NewString() + ext
}
