package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/attendance-client/internal/application"
)

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer func() { _ = file.Close() }()

	if name := file.GetSheetName(0); name != HistorySheet {
		t.Fatalf("expected sheet %q, got %q", HistorySheet, name)
	}
	rows, err := file.GetRows(HistorySheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	return rows
}

func TestWriteHistory(t *testing.T) {
	t.Parallel()

	distance := 850.4
	reason := "Client visit"
	lat, lng := 35.0, 139.0
	approver := int64(3)
	approvedAt := time.Date(2026, 10, 16, 1, 0, 0, 0, time.UTC)
	records := []application.AttendanceRecord{
		{
			ID: 11, UserID: 2, Status: application.StatusPending, DistanceFromHome: &distance,
			IsLateRequest: true, LateRequestReason: &reason,
			CreatedAt: time.Date(2026, 10, 16, 0, 30, 0, 0, time.UTC),
		},
		{
			ID: 10, UserID: 2, Status: application.StatusPresent, Latitude: &lat, Longitude: &lng,
			ApprovedBy: &approver, ApprovedAt: &approvedAt,
			CreatedAt: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteHistory(&buf, records, time.FixedZone("JST", 9*60*60)); err != nil {
		t.Fatalf("WriteHistory failed: %v", err)
	}

	rows := readRows(t, buf.Bytes())
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][9] != "Approved At" {
		t.Fatalf("unexpected header %v", rows[0])
	}

	first := rows[1]
	if first[0] != "11" || first[1] != "2026-10-16 09:30" || first[2] != "PENDING" || first[3] != "850m" || first[4] != "Yes" || first[5] != "Client visit" {
		t.Fatalf("unexpected first row %v", first)
	}

	second := rows[2]
	if second[3] != "Unknown" || second[4] != "No" || second[6] != "35.000000" || second[8] != "3" || second[9] != "2026-10-16 10:00" {
		t.Fatalf("unexpected second row %v", second)
	}
}

func TestWriteHistory_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteHistory(&buf, nil, nil); err != nil {
		t.Fatalf("WriteHistory failed: %v", err)
	}
	rows := readRows(t, buf.Bytes())
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d", len(rows))
	}
}
