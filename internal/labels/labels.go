// Package labels renders the QR code and the printable label stuck on each
// box, pallet and shipment. The QR code points at the public detail page.
package labels

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"time"

	"depo-backend/internal/timeutil"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf/v2"
)

const (
	DefaultQRSize = 256
	maxQRSize     = 1024
)

// DetailURL is the public page a label's QR code opens.
func DetailURL(baseURL, kind, code string) string {
	return fmt.Sprintf("%s/q/%s/%s", strings.TrimRight(baseURL, "/"), kind, code)
}

// QRPNG encodes content as a size x size PNG.
func QRPNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type Label struct {
	Kind      string // BOX, PALLET or SHIPMENT
	Code      string
	Title     string
	Lines     []string
	CreatedBy string
	CreatedAt time.Time
	URL       string
}

// Core PDF fonts are cp1252; Turkish letters outside it are transliterated.
var transliterate = strings.NewReplacer(
	"ş", "s", "Ş", "S", "ğ", "g", "Ğ", "G", "ı", "i", "İ", "I",
)

// PDF renders a 100x60 mm label with the QR code on the left.
func PDF(l Label) ([]byte, error) {
	qrPNG, err := QRPNG(l.URL, 512)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 100, Ht: 60},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(transliterate.Replace(s)) }

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 4, 6, 48, 48, false, opts, 0, "")

	pdf.SetXY(54, 6)
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(42, 4, text(l.Kind), "", 2, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(42, 7, l.Code, "", 2, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.MultiCell(42, 5, text(truncate(l.Title, 60)), "", "L", false)

	pdf.SetFont("Arial", "", 8)
	for i, line := range l.Lines {
		if i == 4 {
			pdf.SetX(54)
			pdf.CellFormat(42, 4, fmt.Sprintf("+%d more", len(l.Lines)-i), "", 2, "L", false, 0, "")
			break
		}
		pdf.SetX(54)
		pdf.CellFormat(42, 4, text(truncate(line, 32)), "", 2, "L", false, 0, "")
	}

	pdf.SetXY(54, 50)
	pdf.SetFont("Arial", "", 7)
	footer := l.CreatedBy
	if !l.CreatedAt.IsZero() {
		footer = fmt.Sprintf("%s  %s", timeutil.FormatTRT(l.CreatedAt, timeutil.DisplayLayout), l.CreatedBy)
	}
	pdf.CellFormat(42, 4, text(footer), "", 0, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render label %s: %w", l.Code, err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
