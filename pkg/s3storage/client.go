// Package s3storage - тонкий клиент S3-совместимого хранилища для инструментов агента.
package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ZhuLinsen/MiniAgent/pkg/config"
)

// ErrObjectTooLarge возвращается, когда объект больше лимита чтения.
var ErrObjectTooLarge = errors.New("object exceeds read limit")

// ClientInterface определяет интерфейс для S3 клиента.
// Используется для мокания в тестах и внедрения зависимостей.
type ClientInterface interface {
	ListFiles(ctx context.Context, prefix string, limit int) ([]StoredObject, error)
	DownloadFile(ctx context.Context, key string, maxBytes int64) ([]byte, error)
}

// Client работает с одним бакетом.
type Client struct {
	api    *minio.Client
	bucket string
}

// Проверка что Client реализует ClientInterface
var _ ClientInterface = (*Client)(nil)

// StoredObject - сырой объект из S3
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// New создает клиент из секции s3 конфигурации.
func New(cfg config.S3Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3: endpoint and bucket are required")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
	}, nil
}

// Bucket возвращает имя бакета.
func (c *Client) Bucket() string { return c.bucket }

// ListFiles возвращает файлы по префиксу (рекурсивно), не больше limit штук.
// limit <= 0 означает "без ограничения". Пустой результат не является ошибкой.
func (c *Client) ListFiles(ctx context.Context, prefix string, limit int) ([]StoredObject, error) {
	// Нормализация префикса (добавляем слеш, если это "папка")
	if prefix != "" && !strings.HasSuffix(prefix, "/") && !strings.Contains(prefix, ".") {
		prefix += "/"
	}

	// Отдельный контекст: прекращаем листинг, когда набрали limit
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	var objects []StoredObject
	for obj := range c.api.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("s3: list %q: %w", prefix, obj.Err)
		}
		// Пропускаем саму "папку"
		if obj.Key == prefix || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		objects = append(objects, StoredObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
		if limit > 0 && len(objects) >= limit {
			break
		}
	}

	return objects, nil
}

// DownloadFile скачивает объект целиком в память.
// maxBytes > 0 ограничивает размер: более крупные объекты дают ErrObjectTooLarge.
func (c *Client) DownloadFile(ctx context.Context, key string, maxBytes int64) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3: get %q: %w", key, err)
	}
	defer obj.Close()

	var r io.Reader = obj
	if maxBytes > 0 {
		r = io.LimitReader(obj, maxBytes+1)
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("s3: read %q: %w", key, err)
	}
	if maxBytes > 0 && int64(buf.Len()) > maxBytes {
		return nil, fmt.Errorf("s3: %q: %w (%d bytes)", key, ErrObjectTooLarge, maxBytes)
	}

	return buf.Bytes(), nil
}
