package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// timeToString formats t in the business location.
func timeToString(t time.Time, loc *time.Location) *string {
	format := t.In(loc).Format(dateTimeLayout)
	return &format
}

// mapAttendanceToResponse converts an Attendance entity to AttendanceResponse
func mapAttendanceToResponse(att attendance.Attendance, loc *time.Location) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:        att.ID,
		UserID:    att.UserID,
		UserName:  att.UserName,
		Date:      att.Date.Format(dateLayout),
		Status:    string(att.Status),
		Note:      att.Note,
		CreatedAt: att.CreatedAt.In(loc).Format(dateTimeLayout),
		UpdatedAt: att.UpdatedAt.In(loc).Format(dateTimeLayout),
	}

	if att.Shift != nil {
		shiftID := att.Shift.ShiftID
		kind := string(att.Shift.Kind)
		start := att.Shift.Start.String()
		end := att.Shift.End.String()
		minutes := att.Shift.Minutes
		resp.ShiftID = &shiftID
		resp.ShiftKind = &kind
		resp.RegisteredStart = &start
		resp.RegisteredEnd = &end
		resp.RegisteredMinutes = &minutes
	}

	if in := att.CheckIn; in != nil {
		resp.CheckInTime = timeToString(in.Time, loc)
		resp.CheckInAddress = in.Address
		resp.CheckInLocation = in.Location
		resp.LateMinutes = in.LateMinutes
		resp.IsLate = in.LateMinutes > 0
	}

	if out := att.CheckOut; out != nil {
		resp.CheckOutTime = timeToString(out.Time, loc)
		resp.CheckOutAddress = out.Address
		resp.CheckOutLocation = out.Location
		resp.EarlyLeaveMinutes = out.EarlyLeaveMinutes
		resp.OvertimeMinutes = out.OvertimeMinutes
		resp.WorkingMinutes = out.WorkingMinutes
		resp.CompletionRate = out.CompletionRate
		resp.IsEarlyLeave = out.EarlyLeaveMinutes > 0
		resp.AutoClosed = out.AutoClosed

		hours := float64(out.WorkingMinutes) / 60.0
		resp.WorkingHours = &hours
	}

	return resp
}

func mapAttendancesToResponse(records []attendance.Attendance, loc *time.Location) []attendance.AttendanceResponse {
	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, mapAttendanceToResponse(r, loc))
	}
	return responses
}

func mapShiftToResponse(s schedule.Shift) attendance.ShiftResponse {
	return attendance.ShiftResponse{
		ID:              s.ID,
		Date:            s.Date.Format(dateLayout),
		Kind:            string(s.Kind),
		StartTime:       s.Start.String(),
		EndTime:         s.End.String(),
		ExpectedMinutes: s.RegisteredMinutes(),
		WorkMode:        string(s.WorkMode),
		Note:            s.Note,
	}
}

func mapShiftsToResponse(shifts []schedule.Shift) []attendance.ShiftResponse {
	responses := make([]attendance.ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		responses = append(responses, mapShiftToResponse(s))
	}
	return responses
}
