package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance/internal/pkg/export"
	"github.com/cmlabs-hris/hris-attendance/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	MyMonthlyStats(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	DailyReport(w http.ResponseWriter, r *http.Request)
	ExportDailyReport(w http.ResponseWriter, r *http.Request)
	UserMonthlyStats(w http.ResponseWriter, r *http.Request)
	CloseStale(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	loc               *time.Location
}

// NewAttendanceHandler builds the handler. loc is the business time zone used
// to resolve default dates and periods.
func NewAttendanceHandler(attendanceService attendance.AttendanceService, loc *time.Location) AttendanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		loc:               loc,
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

// clientIP strips the port from r.RemoteAddr, which RealIP may already have
// replaced with the forwarded address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.CheckInRequest
	if err := decodeBody(r, &req); err != nil {
		slog.Error("Failed to decode check-in request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.UserID = identity.UserID
	req.NetworkOrigin = clientIP(r)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check in successful", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.CheckOutRequest
	if err := decodeBody(r, &req); err != nil {
		slog.Error("Failed to decode check-out request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.UserID = identity.UserID
	req.NetworkOrigin = clientIP(r)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check out successful", result)
}

// Today implements AttendanceHandler.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetTodayStatus(r.Context(), identity.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter, err := parseAttendanceFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	filter.UserID = &identity.UserID

	// The caller's own records, regardless of role.
	result, err := h.attendanceService.ListAttendance(r.Context(), filter, identity.UserID, false)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, listMeta(result))
}

// MyMonthlyStats implements AttendanceHandler.
func (h *attendanceHandlerImpl) MyMonthlyStats(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.monthlyStats(w, r, identity.UserID)
}

// UserMonthlyStats implements AttendanceHandler.
func (h *attendanceHandlerImpl) UserMonthlyStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !validator.IsValidUUID(userID) {
		response.HandleError(w, validator.ValidationErrors{{
			Field:   "user_id",
			Message: "user_id must be a valid UUID",
		}})
		return
	}

	h.monthlyStats(w, r, userID)
}

func (h *attendanceHandlerImpl) monthlyStats(w http.ResponseWriter, r *http.Request, userID string) {
	now := time.Now().In(h.loc)
	month, year := int(now.Month()), now.Year()

	var errs validator.ValidationErrors
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be a number"})
		}
		month = m
	}
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be a number"})
		}
		year = y
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.attendanceService.MonthlyStats(r.Context(), userID, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter, err := parseAttendanceFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListAttendance(r.Context(), filter, identity.UserID, identity.CanViewAll())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, listMeta(result))
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.HandleError(w, attendance.ErrAttendanceNotFound)
		return
	}

	result, err := h.attendanceService.GetAttendance(r.Context(), id, identity.UserID, identity.CanViewAll())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DailyReport implements AttendanceHandler.
func (h *attendanceHandlerImpl) DailyReport(w http.ResponseWriter, r *http.Request) {
	date, err := h.reportDate(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.DailyReport(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportDailyReport implements AttendanceHandler.
func (h *attendanceHandlerImpl) ExportDailyReport(w http.ResponseWriter, r *http.Request) {
	date, err := h.reportDate(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.DailyReport(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := export.WriteDailyReport(&buf, result); err != nil {
		slog.Error("Failed to render daily report", "date", result.Date, "error", err)
		response.InternalServerError(w, "Failed to export daily report")
		return
	}

	response.Attachment(w, "attendance-"+result.Date+".xlsx", export.XLSXContentType, buf.Bytes())
}

// CloseStale implements AttendanceHandler.
func (h *attendanceHandlerImpl) CloseStale(w http.ResponseWriter, r *http.Request) {
	closed, err := h.attendanceService.CloseStaleShifts(r.Context())
	if err != nil && closed == 0 {
		response.HandleError(w, err)
		return
	}
	if err != nil {
		slog.Warn("Some stale attendances could not be closed", "closed", closed, "error", err)
	}

	response.SuccessWithMessage(w, "Stale attendances closed", map[string]int{"closed": closed})
}

// reportDate reads ?date=YYYY-MM-DD, defaulting to today in the business zone.
func (h *attendanceHandlerImpl) reportDate(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return time.Now().In(h.loc), nil
	}

	date, valid := validator.IsValidDate(v)
	if !valid {
		return time.Time{}, validator.ValidationErrors{{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		}}
	}
	return date, nil
}

func listMeta(result attendance.ListAttendanceResponse) *response.Meta {
	return &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	}
}

func parseAttendanceFilter(r *http.Request) (attendance.AttendanceFilter, error) {
	var filter attendance.AttendanceFilter
	var errs validator.ValidationErrors
	query := r.URL.Query()

	if v := query.Get("user_id"); v != "" {
		filter.UserID = &v
	}
	if v := query.Get("start_date"); v != "" {
		filter.StartDate = &v
	}
	if v := query.Get("end_date"); v != "" {
		filter.EndDate = &v
	}
	if v := query.Get("status"); v != "" {
		filter.Status = &v
	}

	intParam := func(key string) *int {
		v := query.Get(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: key, Message: key + " must be a number"})
			return nil
		}
		return &n
	}

	filter.Month = intParam("month")
	filter.Year = intParam("year")
	if page := intParam("page"); page != nil {
		filter.Page = *page
	}
	if limit := intParam("limit"); limit != nil {
		filter.Limit = *limit
	}

	if len(errs) > 0 {
		return filter, errs
	}
	return filter, nil
}
