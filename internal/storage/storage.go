package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

var ErrInvalidKey = errors.New("invalid_storage_key")

//go:generate mockgen -source=storage.go -destination=./mocks/mock_storage.go -package=mocks

// Storage persists public files such as product images.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Driver() string
}

// NewKey builds a collision-free object key under prefix that keeps a
// readable slug of the original filename, e.g. products/01HV...-red-shoe.png.
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(filename, "\\", "/")), path.Ext(filename))

	name := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	if s := slug.Make(base); s != "" {
		name += "-" + s
	}
	return path.Join(strings.Trim(prefix, "/"), strings.ToLower(name)+ext)
}

// cleanKey rejects keys that are empty, absolute or escape the storage root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
