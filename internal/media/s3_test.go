package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket is a minimal path-style S3 endpoint honouring If-None-Match: *
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string // path -> content type
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	io.Copy(io.Discard, r.Body)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[r.URL.Path]; exists && r.Header.Get("If-None-Match") == "*" {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusPreconditionFailed)
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>PreconditionFailed</Code><Message>At least one of the pre-conditions you specified did not hold</Message></Error>`)
		return
	}
	b.objects[r.URL.Path] = r.Header.Get("Content-Type")
	w.Header().Set("ETag", `"abc"`)
	w.WriteHeader(http.StatusOK)
}

func newTestS3Store(t *testing.T) (*S3Store, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string]string{}}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
	})
	return NewS3Store(client, "media", "us-east-1", "sites/main", "https://cdn.example.com/"), bucket
}

func TestS3StoreSave(t *testing.T) {
	store, bucket := newTestS3Store(t)

	src := filepath.Join(t.TempDir(), "incoming")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	key, err := store.Save(context.Background(), src, "2026/10", "cat.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "2026/10/cat.jpg", key)
	assert.Equal(t, "https://cdn.example.com/sites/main/2026/10/cat.jpg", store.URL(key))
	assert.Empty(t, store.LocalPath(key))

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	assert.Equal(t, "image/jpeg", bucket.objects["/media/sites/main/2026/10/cat.jpg"])
}

func TestS3StoreSaveNumbersExistingKeys(t *testing.T) {
	store, bucket := newTestS3Store(t)

	src := filepath.Join(t.TempDir(), "incoming")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	first, err := store.Save(context.Background(), src, "2026/10", "cat.jpg", "image/jpeg")
	require.NoError(t, err)
	second, err := store.Save(context.Background(), src, "2026/10", "cat.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "2026/10/cat.jpg", first)
	assert.Equal(t, "2026/10/cat-1.jpg", second)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	assert.Len(t, bucket.objects, 2)
}

func TestNewS3StoreDefaultPublicURL(t *testing.T) {
	store := NewS3Store(nil, "media", "eu-west-1", "", "")
	assert.True(t, strings.HasPrefix(store.URL("a.jpg"), "https://media.s3.eu-west-1.amazonaws.com/"))
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/a.jpg", store.URL("a.jpg"))
}
