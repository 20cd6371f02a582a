package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"autoparts/internal/usecase"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// 使う操作だけ切り出す（テストで差し替える）
type objectWriter interface {
	NewWriter(ctx context.Context, key, contentType string) io.WriteCloser
	Delete(ctx context.Context, key string) error
}

type bucketObjects struct {
	bucket *gcs.BucketHandle
}

func (b bucketObjects) NewWriter(ctx context.Context, key, contentType string) io.WriteCloser {
	w := b.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	return w
}

func (b bucketObjects) Delete(ctx context.Context, key string) error {
	return b.bucket.Object(key).Delete(ctx)
}

// GCSStore は商品画像をCloud Storageに置き、公開URLを返す
type GCSStore struct {
	objects objectWriter
	baseURL string
	client  *gcs.Client
}

// credentialsFileが空ならADC
func NewGCSStore(ctx context.Context, bucket, credentialsFile, publicBaseURL string) (*GCSStore, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: new client: %w", err)
	}

	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{objects: bucketObjects{bucket: client.Bucket(bucket)}, baseURL: base, client: client}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	w := s.objects.NewWriter(ctx, key, contentType)
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: close %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// 既に無いオブジェクトは成功扱い
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.objects.Delete(ctx, key)
	if err == nil || errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return fmt.Errorf("storage: delete %s: %w", key, err)
}

func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

var _ usecase.ObjectStore = (*GCSStore)(nil)
