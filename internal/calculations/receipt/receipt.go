// Package receipt renders a ledger entry as a printable PDF receipt with
// a QR code of its receipt number.
package receipt

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"birshibpur/pkg/model"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// Header is the issuing temple as printed at the top of every receipt.
type Header struct {
	Name    string
	Address string
}

// Render writes the receipt for calc to w. Dates print in loc.
//
// The core PDF fonts only cover Windows-1252, so text outside it (for
// example Bengali names) is printed through the font's fallback glyph.
func Render(w io.Writer, header Header, calc *model.Calculation, loc *time.Location) error {
	qrPNG, err := qrcode.Encode(calc.ReceiptNo, qrcode.Medium, qrSize)
	if err != nil {
		return fmt.Errorf("encode receipt QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Receipt "+calc.ReceiptNo, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(header.Name), "", 1, "C", false, 0, "")
	if header.Address != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, tr(header.Address), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, title(calc.Type), "B", 1, "C", false, 0, "")
	pdf.Ln(3)

	rows := [][2]string{
		{"Receipt No", calc.ReceiptNo},
		{"Date", calc.Date.In(loc).Format("02 Jan 2006")},
		{nameLabel(calc.Type), calc.Name},
		{"Category", calc.Category},
		{"Amount", "Rs. " + FormatRupees(calc.Amount)},
	}
	if calc.Phone != "" {
		rows = append(rows, [2]string{"Phone", calc.Phone})
	}
	if calc.Note != "" {
		rows = append(rows, [2]string{"Note", calc.Note})
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(32, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(70, 7, tr(row[1]), "", "L", false)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pageW, _ := pdf.GetPageSize()
	pdf.ImageOptions("qr", pageW-15-32, 42, 32, 32, false, opts, 0, "")

	pdf.SetY(-25)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, "Issued "+calc.CreatedAt.In(loc).Format("02 Jan 2006 15:04"), "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render receipt PDF: %w", err)
	}
	return nil
}

func title(entryType string) string {
	if entryType == model.EntryExpense {
		return "PAYMENT VOUCHER"
	}
	return "DONATION RECEIPT"
}

func nameLabel(entryType string) string {
	if entryType == model.EntryExpense {
		return "Paid to"
	}
	return "Received from"
}

// FormatRupees groups amount the Indian way: 12,34,567.
func FormatRupees(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	if len(s) <= 3 {
		return sign + s
	}

	head, tail := s[:len(s)-3], s[len(s)-3:]
	var out []byte
	for i, c := range []byte(head) {
		if i > 0 && (len(head)-i)%2 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return sign + string(out) + "," + tail
}
