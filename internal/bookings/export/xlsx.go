package export

import (
	"fmt"
	"io"
	"time"

	"birshibpur/pkg/model"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{"ID", "Name", "Email", "Phone", "Service", "Date", "Time", "Status", "Rejection reason", "Message", "Created at"}

// WriteXLSX renders bookings as a single-sheet workbook.
func WriteXLSX(w io.Writer, bookings []*model.Booking, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("error removing default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("error writing header: %w", err)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("error styling header: %w", err)
	}

	for r, b := range bookings {
		row := []any{
			b.ID,
			b.Name,
			b.Email,
			b.Phone,
			b.ServiceName,
			b.Date.In(loc).Format(time.DateOnly),
			b.Time,
			b.Status,
			b.RejectionReason,
			b.Message,
			b.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", r+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "K", 18); err != nil {
		return fmt.Errorf("error sizing columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
