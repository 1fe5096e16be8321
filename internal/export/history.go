// Package export writes loaded attendance data to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/attendance-client/internal/application"
)

// HistorySheet is the worksheet name used by WriteHistory.
const HistorySheet = "History"

var historyHeader = []any{
	"ID", "Checked In", "Status", "Distance", "Late Request", "Reason",
	"Latitude", "Longitude", "Approved By", "Approved At",
}

// WriteHistory renders records as an .xlsx workbook with a single History
// sheet, one row per record in the order given. Times are rendered in loc;
// a nil loc keeps them as received.
func WriteHistory(w io.Writer, records []application.AttendanceRecord, loc *time.Location) (err error) {
	file := excelize.NewFile()
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := file.SetSheetName(file.GetSheetName(0), HistorySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := file.SetSheetRow(HistorySheet, "A1", &historyHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastColumn, err := excelize.ColumnNumberToName(len(historyHeader))
	if err != nil {
		return err
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := file.SetCellStyle(HistorySheet, "A1", lastColumn+"1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := file.SetColWidth(HistorySheet, "B", "B", 20); err != nil {
		return err
	}
	if err := file.SetColWidth(HistorySheet, "F", "F", 40); err != nil {
		return err
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := historyRow(record, loc)
		if err := file.SetSheetRow(HistorySheet, cell, &row); err != nil {
			return fmt.Errorf("write record %d: %w", record.ID, err)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func historyRow(record application.AttendanceRecord, loc *time.Location) []any {
	lateRequest := "No"
	if record.IsLateRequest {
		lateRequest = "Yes"
	}
	return []any{
		record.ID,
		formatTime(&record.CreatedAt, loc),
		string(record.Status),
		application.FormatDistance(record.DistanceFromHome),
		lateRequest,
		stringValue(record.LateRequestReason),
		floatValue(record.Latitude),
		floatValue(record.Longitude),
		intValue(record.ApprovedBy),
		formatTime(record.ApprovedAt, loc),
	}
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	value := *t
	if loc != nil {
		value = value.In(loc)
	}
	return value.Format("2006-01-02 15:04")
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

func intValue(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
