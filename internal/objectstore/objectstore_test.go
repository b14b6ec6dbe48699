package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"depo-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), config.ObjectStoreConfig{Endpoint: "https://r2.example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPutUploadsAndReturnsPublicURL(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		size   int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, size = r.Method, r.URL.Path, len(body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := New(context.Background(), config.ObjectStoreConfig{
		Endpoint:  srv.URL,
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "depo",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "boxes/BOX-000001/a.jpg", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/boxes/BOX-000001/a.jpg", url)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/depo/boxes/BOX-000001/a.jpg", path)
	assert.NotZero(t, size)
}
