package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"depo-backend/internal/labels"
	"depo-backend/internal/store"
)

var ErrPrinterNotConfigured = errors.New("label printer not configured")

const maxPrintCopies = 50

// PrinterService drives the thermal label printer bridge on the warehouse
// network. The bridge takes two text lines per label; line one is the entity
// code, line two its name.
type PrinterService struct {
	client  *http.Client
	baseURL string
}

type printRequest struct {
	Line1  string `json:"line1"`
	Line2  string `json:"line2"`
	Font1  string `json:"font1"`
	Font2  string `json:"font2"`
	Copies int    `json:"copies"`
}

type printResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewPrinterService returns nil for an empty URL.
func NewPrinterService(baseURL string, timeout time.Duration) *PrinterService {
	if baseURL == "" {
		return nil
	}
	return &PrinterService{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// PrintLabel prints copies of l. Pairs go out on 2-up sheets, an odd copy on a
// single full-width label.
func (s *PrinterService) PrintLabel(ctx context.Context, l labels.Label, copies int) error {
	if s == nil {
		return ErrPrinterNotConfigured
	}
	if copies < 1 || copies > maxPrintCopies {
		return fmt.Errorf("copies must be between 1 and %d: %w", maxPrintCopies, store.ErrInvalid)
	}

	req := printRequest{Line1: l.Code, Line2: l.Title, Font1: "5", Font2: "4"}
	if pairs := copies / 2; pairs > 0 {
		req.Copies = pairs
		if err := s.send(ctx, "/print-2up", req); err != nil {
			return err
		}
	}
	if copies%2 == 1 {
		req.Copies = 1
		return s.send(ctx, "/print-full", req)
	}
	return nil
}

func (s *PrinterService) send(ctx context.Context, endpoint string, req printRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("printer %s: %v: %w", endpoint, err, store.ErrUnavailable)
	}
	defer resp.Body.Close()

	var out printResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("printer %s: bad response (status %d): %w", endpoint, resp.StatusCode, store.ErrUnavailable)
	}
	if !out.Success {
		return fmt.Errorf("printer %s: %s: %w", endpoint, out.Message, store.ErrUnavailable)
	}
	return nil
}
