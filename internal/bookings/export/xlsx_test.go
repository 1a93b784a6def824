package export

import (
	"bytes"
	"testing"
	"time"

	"birshibpur/pkg/model"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	bookings := []*model.Booking{
		{
			ID:              "65f000000000000000000001",
			Name:            "Ramesh Ghosh",
			ServiceName:     "Annaprashan",
			Date:            time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
			Time:            "10:00",
			Status:          model.BookingRejected,
			RejectionReason: "সময় পরিবর্তন",
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, bookings, loc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("workbook should be readable: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[1][1] != "Ramesh Ghosh" || rows[1][5] != "2025-03-10" {
		t.Errorf("unexpected rows %v", rows)
	}
	if rows[1][8] != "সময় পরিবর্তন" {
		t.Errorf("rejection reason = %q", rows[1][8])
	}
}
