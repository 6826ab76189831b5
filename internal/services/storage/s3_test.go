package storage

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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisAlshanov/vidgrab/internal/config"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        string
}

// fakeS3 answers just enough of the S3 REST API for the storage client
type fakeS3 struct {
	mu       sync.Mutex
	requests []recordedRequest
	objects  map[string]bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{
		method:      r.Method,
		path:        r.URL.Path,
		contentType: r.Header.Get("Content-Type"),
		body:        string(body),
	})

	switch r.Method {
	case http.MethodPut:
		f.objects[r.URL.Path] = true
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if r.URL.Path == "/media" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T) (*S3Storage, *fakeS3) {
	t.Helper()

	fake := &fakeS3{objects: map[string]bool{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	s, err := NewS3Storage(&config.S3Config{
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		BucketName:      "media",
		EndpointURL:     server.URL,
	})
	require.NoError(t, err)
	return s, fake
}

func TestUploadFile(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video-bytes"), 0o644))

	err := s.UploadFile(ctx, "downloads/req_1/clip.mp4", path, "video/mp4", map[string]string{"format_id": "22"})
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/media/downloads/req_1/clip.mp4", req.path)
	assert.Equal(t, "video/mp4", req.contentType)
	assert.Equal(t, "video-bytes", req.body)
	assert.True(t, fake.objects["/media/downloads/req_1/clip.mp4"])
}

func TestDelete(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video-bytes"), 0o644))
	require.NoError(t, s.UploadFile(ctx, "downloads/req_1/clip.mp4", path, "video/mp4", nil))

	require.NoError(t, s.Delete(ctx, "downloads/req_1/clip.mp4"))
	assert.Empty(t, fake.objects)
	assert.Equal(t, http.MethodDelete, fake.requests[len(fake.requests)-1].method)

	// missing keys delete cleanly
	assert.NoError(t, s.Delete(ctx, "downloads/req_1/absent.mp4"))
}

func TestUploadFileMissing(t *testing.T) {
	s, fake := newTestStorage(t)

	err := s.UploadFile(context.Background(), "k", filepath.Join(t.TempDir(), "absent"), "video/mp4", nil)
	assert.Error(t, err)
	assert.Empty(t, fake.requests)
}

func TestGeneratePresignedURL(t *testing.T) {
	s, fake := newTestStorage(t)

	url, err := s.GeneratePresignedURL(context.Background(), "downloads/req_1/clip.mp4", 15*time.Minute)
	require.NoError(t, err)

	assert.True(t, strings.Contains(url, "/media/downloads/req_1/clip.mp4"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Empty(t, fake.requests, "presigning must not call the server")
}

func TestPing(t *testing.T) {
	s, _ := newTestStorage(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNewStorageDisabled(t *testing.T) {
	s, err := NewStorage(&config.S3Config{})
	require.NoError(t, err)
	assert.Nil(t, s)
}
