package utils

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"depo-backend/internal/models"
	"depo-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreErrorStatus(t *testing.T) {
	cases := map[error]int{
		store.ErrNotFound:                           http.StatusNotFound,
		fmt.Errorf("box: %w", store.ErrConflict):    http.StatusConflict,
		store.ErrInvalid:                            http.StatusBadRequest,
		store.ErrForbidden:                          http.StatusForbidden,
		fmt.Errorf("x: %w", store.ErrUnavailable):   http.StatusServiceUnavailable,
		fmt.Errorf("connection reset"):              http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StoreErrorStatus(err), err.Error())
	}
}

func TestRespondStoreErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondStoreError(rec, fmt.Errorf("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestDecodeJSONValidates(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":""}`))
	var req models.CreateBoxRequest
	err := DecodeJSON(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	r = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"Koli-A","lines":[{"product_name":"Vida","qty":0}]}`))
	err = DecodeJSON(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qty must be at least 1")

	r = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`not json`))
	assert.EqualError(t, DecodeJSON(r, &req), "invalid request body")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", ClientIP(r))

	r.Header.Set("X-Real-IP", "85.105.1.1")
	assert.Equal(t, "85.105.1.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "78.160.2.2, 10.0.0.1")
	assert.Equal(t, "78.160.2.2", ClientIP(r))
}
