package export

import (
	"fmt"
	"time"

	"gigbook/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{"ID", "Date", "Start (UTC)", "End (UTC)", "Hours", "Artist", "Status", "Event", "Note", "Created"}

var statusFill = map[string]string{
	models.BookingPending:   "#FFEB9C",
	models.BookingAccepted:  "#C6EFCE",
	models.BookingDeclined:  "#F2F2F2",
	models.BookingCancelled: "#FFC7CE",
}

// Bookings builds a workbook with one row per booking of a venue. The caller owns the
// returned file and must Close it after writing.
func Bookings(venueName string, from, to time.Time, bookings []*models.BookingDetails) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	_ = f.SetCellValue(sheetName, "A1", title(venueName, from, to))
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	styles := make(map[string]int, len(statusFill))
	for status, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create style: %w", err)
		}
		styles[status] = id
	}

	for i, b := range bookings {
		row := i + 3
		event := ""
		if b.EventID != nil {
			event = fmt.Sprintf("#%d", *b.EventID)
		}
		values := []any{
			b.ID,
			b.EventDate.Format("2006-01-02"),
			b.EventDate.Format("15:04"),
			b.EndsAt().Format("2006-01-02 15:04"),
			b.Hours,
			b.ArtistName,
			b.Status,
			event,
			b.Note,
			b.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		if style, ok := styles[b.Status]; ok {
			end, _ := excelize.CoordinatesToCellName(len(headers), row)
			_ = f.SetCellStyle(sheetName, start, end, style)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "E", 16)
	_ = f.SetColWidth(sheetName, "F", "F", 25)
	_ = f.SetColWidth(sheetName, "G", "H", 12)
	_ = f.SetColWidth(sheetName, "I", "I", 40)
	_ = f.SetColWidth(sheetName, "J", "J", 18)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 2, TopLeftCell: "A3", ActivePane: "bottomLeft"})

	return f, nil
}

// FileName is the suggested name of a bookings export.
func FileName(venueSlug string, now time.Time) string {
	return fmt.Sprintf("bookings_%s_%s.xlsx", venueSlug, now.UTC().Format("2006-01-02_15-04-05"))
}

func title(venueName string, from, to time.Time) string {
	switch {
	case from.IsZero() && to.IsZero():
		return fmt.Sprintf("%s: all bookings", venueName)
	case to.IsZero():
		return fmt.Sprintf("%s: bookings from %s", venueName, from.Format("2006-01-02"))
	case from.IsZero():
		return fmt.Sprintf("%s: bookings until %s", venueName, to.Format("2006-01-02"))
	default:
		return fmt.Sprintf("%s: %s - %s", venueName, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
}
