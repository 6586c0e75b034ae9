package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ClientMinio is the part of *minio.Client used by MinioStore.
type ClientMinio interface {
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

type MinioStore struct {
	client ClientMinio
}

// NewMinioStore connects to a MinIO (or other S3-compatible) endpoint with
// static credentials.
func NewMinioStore(endpoint, accessKeyID, secretAccessKey string, useSSL bool) (*MinioStore, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init error: %w", err)
	}
	return NewMinioStoreWithClient(minioClient), nil
}

func NewMinioStoreWithClient(client ClientMinio) *MinioStore {
	return &MinioStore{client: client}
}

// Open returns the object reader after a stat, since minio defers request
// errors to the first Read.
func (m *MinioStore) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, mapMinioError(err))
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, mapMinioError(err))
	}
	return obj, nil
}

func (m *MinioStore) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to stat object %s/%s: %w", bucket, key, mapMinioError(err))
	}
	return ObjectInfo{
		Key:         info.Key,
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

// Put uploads with an unknown size (-1) so minio switches to a streaming
// multipart upload.
func (m *MinioStore) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, key, body, -1, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (m *MinioStore) SignedURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, bucket, key, expires, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}

func mapMinioError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
