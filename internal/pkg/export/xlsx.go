package export

import (
	"fmt"
	"io"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

// DailyReportSheet is the worksheet name used for the daily report.
const DailyReportSheet = "Daily Report"

// XLSXContentType is the MIME type of the generated workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var dailyReportHeader = []interface{}{
	"User ID", "Name", "Shift", "Registered", "Status",
	"Check In", "Check Out", "Late (min)", "Early Leave (min)",
	"Overtime (min)", "Worked (min)", "Completion (%)", "Auto Closed", "Note",
}

// WriteDailyReport renders the report as a single-sheet workbook.
func WriteDailyReport(w io.Writer, report attendance.DailyReportResponse) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", DailyReportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetCellValue(DailyReportSheet, "A1", "Attendance report "+report.Date); err != nil {
		return err
	}

	header := dailyReportHeader
	if err := f.SetSheetRow(DailyReportSheet, "A3", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, a := range report.Attendances {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		row := []interface{}{
			a.UserID,
			deref(a.UserName),
			deref(a.ShiftKind),
			registeredWindow(a),
			a.Status,
			deref(a.CheckInTime),
			deref(a.CheckOutTime),
			a.LateMinutes,
			a.EarlyLeaveMinutes,
			a.OvertimeMinutes,
			a.WorkingMinutes,
			a.CompletionRate,
			yesNo(a.AutoClosed),
			deref(a.Note),
		}
		if err := f.SetSheetRow(DailyReportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(DailyReportSheet, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(DailyReportSheet, "B", "N", 16); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func registeredWindow(a attendance.AttendanceResponse) string {
	if a.RegisteredStart == nil || a.RegisteredEnd == nil {
		return ""
	}
	return *a.RegisteredStart + "-" + *a.RegisteredEnd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
