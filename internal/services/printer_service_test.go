package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"depo-backend/internal/labels"
	"depo-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type printCall struct {
	path string
	req  printRequest
}

func printerBridge(t *testing.T, success bool) (*PrinterService, *[]printCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []printCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req printRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		calls = append(calls, printCall{path: r.URL.Path, req: req})
		mu.Unlock()
		json.NewEncoder(w).Encode(printResponse{Success: success, Message: "paper out"})
	}))
	t.Cleanup(srv.Close)
	return NewPrinterService(srv.URL+"/", time.Second), &calls
}

func TestPrintLabelSplitsOddCopies(t *testing.T) {
	p, calls := printerBridge(t, true)
	l := labels.Label{Code: "BOX-000042", Title: "Koli-A"}

	require.NoError(t, p.PrintLabel(context.Background(), l, 5))
	require.Len(t, *calls, 2)
	assert.Equal(t, "/print-2up", (*calls)[0].path)
	assert.Equal(t, 2, (*calls)[0].req.Copies)
	assert.Equal(t, "BOX-000042", (*calls)[0].req.Line1)
	assert.Equal(t, "Koli-A", (*calls)[0].req.Line2)
	assert.Equal(t, "/print-full", (*calls)[1].path)
	assert.Equal(t, 1, (*calls)[1].req.Copies)
}

func TestPrintLabelEvenCopies(t *testing.T) {
	p, calls := printerBridge(t, true)
	require.NoError(t, p.PrintLabel(context.Background(), labels.Label{Code: "PLT-000001"}, 2))
	require.Len(t, *calls, 1)
	assert.Equal(t, "/print-2up", (*calls)[0].path)
}

func TestPrintLabelErrors(t *testing.T) {
	var none *PrinterService
	assert.ErrorIs(t, none.PrintLabel(context.Background(), labels.Label{}, 1), ErrPrinterNotConfigured)
	assert.Nil(t, NewPrinterService("", time.Second))

	p, calls := printerBridge(t, false)
	assert.ErrorIs(t, p.PrintLabel(context.Background(), labels.Label{Code: "SHP-000001"}, 0), store.ErrInvalid)
	assert.Empty(t, *calls)

	err := p.PrintLabel(context.Background(), labels.Label{Code: "SHP-000001"}, 1)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Contains(t, err.Error(), "paper out")
}
