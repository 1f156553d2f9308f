// Package media stores uploaded images and maps object keys to public URLs.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MaxUploadSize caps a single image upload.
const MaxUploadSize = 10 << 20

var ErrUnsupportedType = errors.New("unsupported content type")

type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	URL(key string) string
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/avif": ".avif",
}

// NewKey returns "uploads/{uuid}{ext}" for an image content type.
func NewKey(contentType, filename string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageExt[ct]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if e := strings.ToLower(path.Ext(filename)); e == ext || (ext == ".jpg" && e == ".jpeg") {
		ext = e
	}
	return "uploads/" + uuid.NewString() + ext, nil
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

type object struct {
	Body        []byte
	ContentType string
}

// Memory keeps objects in process; used when no bucket is configured.
type Memory struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]object
}

func NewMemory(baseURL string) *Memory {
	if baseURL == "" {
		baseURL = "/media"
	}
	return &Memory{BaseURL: baseURL, objects: map[string]object{}}
}

func (m *Memory) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(body, MaxUploadSize+1))
	if err != nil {
		return err
	}
	if n > MaxUploadSize {
		return fmt.Errorf("object %s exceeds %d bytes", key, MaxUploadSize)
	}
	m.mu.Lock()
	m.objects[key] = object{Body: buf.Bytes(), ContentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *Memory) URL(key string) string { return publicURL(m.BaseURL, key) }

// Get returns a stored object; ok is false when the key is unknown.
func (m *Memory) Get(key string) (body []byte, contentType string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o.Body, o.ContentType, ok
}
