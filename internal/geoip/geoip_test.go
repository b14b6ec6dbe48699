package geoip

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestLookupFormatsAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/85.105.1.1/json/", r.URL.Path)
		_, _ = io.WriteString(w, `{"city":"Istanbul","region":"Istanbul","country_name":"Türkiye"}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/%s/json/", time.Second, quietLog())
	assert.Equal(t, "Istanbul, Türkiye", c.Lookup(context.Background(), "85.105.1.1"))
	assert.Equal(t, "Istanbul, Türkiye", c.Lookup(context.Background(), "85.105.1.1"))
	assert.Equal(t, int32(1), hits.Load())
}

func TestLookupFailuresAreEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL+"/%s/json/", time.Second, quietLog())
	assert.Empty(t, c.Lookup(context.Background(), "85.105.1.1"))
	assert.Empty(t, c.Lookup(context.Background(), "not-an-ip"))
	assert.Equal(t, "Local network", c.Lookup(context.Background(), "192.168.1.10"))
	assert.Equal(t, "Local network", c.Lookup(context.Background(), "127.0.0.1"))
}
