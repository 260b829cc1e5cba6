package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	key := NewKey("products", "Red Shoe (Final).PNG")
	assert.Regexp(t, regexp.MustCompile(`^products/[0-9a-z]{26}-red-shoe-final\.png$`), key)

	assert.NotEqual(t, NewKey("products", "a.jpg"), NewKey("products", "a.jpg"))
	assert.True(t, strings.HasPrefix(NewKey("/products/", "x.webp"), "products/"))
}

func TestCleanKey(t *testing.T) {
	for _, bad := range []string{"", "  ", "/etc/passwd", "../secret", "a/../../b"} {
		_, err := cleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}

	got, err := cleanKey("products/./a.png")
	require.NoError(t, err)
	assert.Equal(t, "products/a.png", got)
}

func TestLocalStorage_PutDelete(t *testing.T) {
	root := t.TempDir()
	s := NewLocal(root, "http://localhost:8080/storage/")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "products/a.png", strings.NewReader("png-bytes"), 9, "image/png"))

	data, err := os.ReadFile(filepath.Join(root, "products", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "http://localhost:8080/storage/products/a.png", s.URL("products/a.png"))

	require.NoError(t, s.Delete(ctx, "products/a.png"))
	_, err = os.Stat(filepath.Join(root, "products", "a.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, "products/a.png"))
	assert.ErrorIs(t, s.Put(ctx, "../escape.png", strings.NewReader("x"), 1, ""), ErrInvalidKey)
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	body    bytes.Buffer
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, in)
	_, _ = f.body.ReadFrom(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	client := &fakeS3{}
	s := NewS3(client, S3Options{Bucket: "catalog", Region: "ap-southeast-1"})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "products/a.png", strings.NewReader("img"), 3, "image/png"))
	require.Len(t, client.puts, 1)
	assert.Equal(t, "catalog", aws.ToString(client.puts[0].Bucket))
	assert.Equal(t, "products/a.png", aws.ToString(client.puts[0].Key))
	assert.Equal(t, "image/png", aws.ToString(client.puts[0].ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(client.puts[0].ContentLength))
	assert.Equal(t, "img", client.body.String())

	require.NoError(t, s.Delete(ctx, "products/a.png"))
	require.Len(t, client.deletes, 1)

	assert.Equal(t, "https://catalog.s3.ap-southeast-1.amazonaws.com/products/a.png", s.URL("products/a.png"))
	assert.Equal(t, "S3", strings.ToUpper(s.Driver()))

	local := NewS3(client, S3Options{Bucket: "catalog", Endpoint: "http://localhost:4566"})
	assert.Equal(t, "http://localhost:4566/catalog/products/a.png", local.URL("products/a.png"))

	client.err = errors.New("boom")
	assert.Error(t, s.Put(ctx, "products/b.png", strings.NewReader("x"), 1, ""))
}
