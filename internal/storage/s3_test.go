package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/mediafetch/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{input: "s3.amazonaws.com", want: "s3.amazonaws.com"},
		{input: "https://acct.r2.cloudflarestorage.com/", want: "acct.r2.cloudflarestorage.com"},
		{input: "http://localhost:9000/bucket/path", want: "localhost:9000"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeEndpoint(tc.input))
		})
	}
}

func TestDetectStorageType(t *testing.T) {
	assert.Equal(t, StorageTypeR2, detectStorageType("https://acct.R2.cloudflarestorage.com"))
	assert.Equal(t, StorageTypeS3, detectStorageType("s3.eu-west-1.amazonaws.com"))
	assert.Equal(t, StorageTypeS3Compatible, detectStorageType("localhost:9000"))
}

func TestGetURL(t *testing.T) {
	withPublic, err := NewS3Storage(&S3Config{
		Endpoint:  "localhost:9000",
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "media",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/downloads/clip.mp4", withPublic.GetURL("downloads/clip.mp4"))

	pathStyle, err := NewS3Storage(&S3Config{
		Endpoint:  "https://s3.example.com",
		AccessKey: "ak",
		SecretKey: "sk",
		UseSSL:    true,
		Bucket:    "media",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/media/clip.mp4", pathStyle.GetURL("clip.mp4"))
}

// fakeS3 is a minimal path-style object endpoint.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3StorageRoundTrip(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	defer server.Close()

	store, err := NewStorage(&config.StorageConfig{
		Endpoint:  server.URL,
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "media",
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.EnsureBucket(ctx))

	exists, err := store.Exists(ctx, "downloads/clip.mp4")
	require.NoError(t, err)
	assert.False(t, exists)

	payload := []byte("video bytes")
	require.NoError(t, store.Upload(ctx, "downloads/clip.mp4", bytes.NewReader(payload), int64(len(payload)), "video/mp4"))

	exists, err = store.Exists(ctx, "downloads/clip.mp4")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Contains(t, fake.objects, "media/downloads/clip.mp4")
}
