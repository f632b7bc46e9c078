package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/config"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/auditlog"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/validator"
	"github.com/google/uuid"
)

const dateFormat = "2006-01-02"

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	rosters        *RosterResolver
	guard          *UniquenessGuard
	audit          auditlog.Sink
	hub            *sse.Hub
	loc            *time.Location
	now            func() time.Time
}

// timePtrToString formats a timestamp in the service location.
func (a *AttendanceServiceImpl) timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.In(a.loc).Format(time.RFC3339)
	return &format
}

// RecordScan implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecordScan(ctx context.Context, req attendance.ScanRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	scanAt := a.now()
	if req.ScanAt != nil {
		scanAt = *req.ScanAt
	}

	return a.record(ctx, req.EmployeeID, nil, scanAt)
}

// RecordAction implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecordAction(ctx context.Context, req attendance.ActionRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	at := a.now()
	if req.AtTime != nil {
		at = *req.AtTime
	}

	action := req.Action
	return a.record(ctx, req.EmployeeID, &action, at)
}

// record runs one attendance write. When requested is nil the action is derived
// from the day's current record.
func (a *AttendanceServiceImpl) record(ctx context.Context, employeeID string, requested *attendance.Action, at time.Time) (attendance.RecordResponse, error) {
	emp, err := a.loadEmployee(ctx, employeeID)
	if err != nil {
		a.reject(ctx, employeeID, requested, err)
		return attendance.RecordResponse{}, err
	}
	if !emp.IsActive() {
		a.reject(ctx, emp.ID, requested, employee.ErrEmployeeInactive)
		return attendance.RecordResponse{}, fmt.Errorf("%s: %w", emp.FullName, employee.ErrEmployeeInactive)
	}

	stored, action, err := a.apply(ctx, emp, requested, at)
	if err != nil {
		if requested == nil && action != "" {
			requested = &action
		}
		a.reject(ctx, emp.ID, requested, err)
		slog.WarnContext(ctx, "Attendance scan rejected", "employee_id", emp.ID, "action", action, "error", err)
		return attendance.RecordResponse{}, fmt.Errorf("%s: %w", emp.FullName, err)
	}

	stored.EmployeeName = &emp.FullName
	response := a.mapRecordToResponse(stored)
	response.Action = &action
	label := action.Label()
	response.ActionLabel = &label

	a.audit.Record(ctx, auditlog.Entry{
		OccurredAt: *stored.Timestamp(action),
		EmployeeID: emp.ID,
		Action:     string(action),
		RecordID:   stored.ID,
		Outcome:    auditlog.OutcomeRecorded,
	})
	if a.hub != nil {
		a.hub.Publish(sse.TopicAttendance, sse.Event{Event: "attendance.recorded", Data: response})
	}

	slog.InfoContext(ctx, "Attendance recorded",
		"employee_id", emp.ID, "record_id", stored.ID, "action", action, "status", stored.Status)

	return response, nil
}

// apply resolves the roster, picks the action and timestamp, and persists the
// resulting record. The returned action is set whenever it was determined.
func (a *AttendanceServiceImpl) apply(ctx context.Context, emp employee.Employee, requested *attendance.Action, at time.Time) (attendance.Record, attendance.Action, error) {
	at = at.Truncate(time.Second)
	day := LocalDay(at, a.loc)

	activeRoster, err := a.rosters.ResolveActiveRoster(ctx, emp.ID, day)
	if err != nil {
		return attendance.Record{}, "", err
	}

	current, err := a.attendanceRepo.GetCurrentForDay(ctx, emp.ID, day)
	if err != nil {
		return attendance.Record{}, "", attendance.NewPersistenceError(fmt.Errorf("failed to get current record: %w", err))
	}

	var action attendance.Action
	if requested != nil {
		action = *requested
		if err := ValidateAction(current, action); err != nil {
			return attendance.Record{}, action, err
		}
	} else {
		action, err = NextAction(current)
		if err != nil {
			return attendance.Record{}, action, err
		}
	}

	ts, err := a.guard.Reserve(ctx, emp.ID, at, action.Kind())
	if err != nil {
		return attendance.Record{}, action, err
	}

	next, isNew, err := Transition(emp.ID, current, action, ts, day)
	if err != nil {
		return attendance.Record{}, action, err
	}
	Project(&next, activeRoster, day, ts)

	var stored attendance.Record
	if isNew {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.Record{}, action, attendance.NewPersistenceError(fmt.Errorf("failed to generate record id: %w", err))
		}
		next.ID = id.String()
		stored, err = a.attendanceRepo.Create(ctx, next)
		if err != nil {
			return attendance.Record{}, action, classifyStoreError(err)
		}
	} else {
		stored, err = a.attendanceRepo.ApplyTransition(ctx, next, action)
		if err != nil {
			return attendance.Record{}, action, classifyStoreError(err)
		}
	}

	return stored, action, nil
}

// GetNextAction implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetNextAction(ctx context.Context, employeeID string) (attendance.NextActionResponse, error) {
	emp, current, day, err := a.loadToday(ctx, employeeID)
	if err != nil {
		return attendance.NextActionResponse{}, err
	}

	next, complete, err := nextActionOf(current)
	if err != nil {
		return attendance.NextActionResponse{}, err
	}

	return attendance.NextActionResponse{
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		Date:         day.Format(dateFormat),
		State:        CurrentState(current),
		NextAction:   next,
		Label:        next.Label(),
		Complete:     complete,
	}, nil
}

// GetCurrentState implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetCurrentState(ctx context.Context, employeeID string) (attendance.CurrentStateResponse, error) {
	emp, current, day, err := a.loadToday(ctx, employeeID)
	if err != nil {
		return attendance.CurrentStateResponse{}, err
	}

	next, complete, err := nextActionOf(current)
	if err != nil {
		return attendance.CurrentStateResponse{}, err
	}

	response := attendance.CurrentStateResponse{
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		Date:         day.Format(dateFormat),
		State:        CurrentState(current),
		NextAction:   next,
		Complete:     complete,
	}

	if current != nil {
		view := current.Clone()
		view.EmployeeName = &emp.FullName
		if view.Status == attendance.StatusCheckedIn {
			a.reproject(ctx, &view)
		}
		record := a.mapRecordToResponse(view)
		response.Record = &record
	}

	return response, nil
}

// GetRecord implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetRecord(ctx context.Context, id string) (attendance.RecordResponse, error) {
	if !validator.IsValidUUID(id) {
		return attendance.RecordResponse{}, attendance.ErrAttendanceNotFound
	}

	record, err := a.attendanceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.RecordResponse{}, err
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return a.mapRecordToResponse(record), nil
}

// ListRecords implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListRecords(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordResponse{}, err
	}

	records, total, err := a.attendanceRepo.List(ctx, filter)
	if err != nil {
		return attendance.ListRecordResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}

	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, a.mapRecordToResponse(record))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	offset := int64((filter.Page - 1) * filter.Limit)
	showing := fmt.Sprintf("%d-%d of %d", offset+1, min(offset+int64(filter.Limit), total), total)
	if offset >= total {
		// Empty result set or a page past the end
		showing = fmt.Sprintf("0 of %d", total)
	}

	return attendance.ListRecordResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Records:    responses,
	}, nil
}

// DeleteRecord implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteRecord(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return attendance.ErrAttendanceNotFound
	}

	record, err := a.attendanceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return err
		}
		return fmt.Errorf("failed to get attendance record: %w", err)
	}

	if err := a.attendanceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}

	a.audit.Record(ctx, auditlog.Entry{
		OccurredAt: a.now().UTC(),
		EmployeeID: record.EmployeeID,
		RecordID:   record.ID,
		Outcome:    auditlog.OutcomeDeleted,
	})
	slog.InfoContext(ctx, "Attendance record deleted", "record_id", id, "employee_id", record.EmployeeID)

	return nil
}

func (a *AttendanceServiceImpl) loadEmployee(ctx context.Context, employeeID string) (employee.Employee, error) {
	emp, err := a.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, err
		}
		return employee.Employee{}, attendance.NewPersistenceError(fmt.Errorf("failed to get employee: %w", err))
	}
	return emp, nil
}

func (a *AttendanceServiceImpl) loadToday(ctx context.Context, employeeID string) (employee.Employee, *attendance.Record, time.Time, error) {
	emp, err := a.loadEmployee(ctx, employeeID)
	if err != nil {
		return employee.Employee{}, nil, time.Time{}, err
	}

	day := LocalDay(a.now(), a.loc)
	current, err := a.attendanceRepo.GetCurrentForDay(ctx, emp.ID, day)
	if err != nil {
		return employee.Employee{}, nil, time.Time{}, attendance.NewPersistenceError(fmt.Errorf("failed to get current record: %w", err))
	}
	return emp, current, day, nil
}

// reproject refreshes the derived fields of an open record up to now.
// Stored values are kept when its roster can no longer be loaded.
func (a *AttendanceServiceImpl) reproject(ctx context.Context, record *attendance.Record) {
	r, err := a.rosters.RosterByID(ctx, record.RosterID)
	if err != nil {
		slog.WarnContext(ctx, "Could not load roster for attendance projection", "roster_id", record.RosterID, "error", err)
		return
	}
	Project(record, r, dayIn(record.Date, a.loc), a.now().Truncate(time.Second))
}

func (a *AttendanceServiceImpl) reject(ctx context.Context, employeeID string, action *attendance.Action, err error) {
	entry := auditlog.Entry{
		OccurredAt: a.now().UTC(),
		EmployeeID: employeeID,
		Outcome:    auditlog.OutcomeRejected,
		Message:    err.Error(),
	}
	if action != nil {
		entry.Action = string(*action)
	}
	a.audit.Record(ctx, entry)
}

// mapRecordToResponse converts a Record entity to RecordResponse
func (a *AttendanceServiceImpl) mapRecordToResponse(record attendance.Record) attendance.RecordResponse {
	var employeeName string
	if record.EmployeeName != nil {
		employeeName = *record.EmployeeName
	}

	lateness := "On time"
	if record.MinutesLate > 0 {
		lateness = fmt.Sprintf("Late by %d min", record.MinutesLate)
	}

	return attendance.RecordResponse{
		ID:                    record.ID,
		EmployeeID:            record.EmployeeID,
		EmployeeName:          employeeName,
		RosterID:              record.RosterID,
		Date:                  record.Date.Format(dateFormat),
		FirstCheckInTime:      a.timePtrToString(record.FirstCheckIn),
		FirstCheckOutTime:     a.timePtrToString(record.FirstCheckOut),
		SecondCheckInTime:     a.timePtrToString(record.SecondCheckIn),
		SecondCheckOutTime:    a.timePtrToString(record.SecondCheckOut),
		Status:                record.Status,
		IsLate:                record.MinutesLate > 0,
		Lateness:              lateness,
		MinutesLate:           record.MinutesLate,
		EarlyDepartureMinutes: record.EarlyDepartureMinutes,
		BreakDurationMinutes:  record.BreakDurationMinutes,
		ExpectedHours:         record.ExpectedHours,
		ActualHours:           record.ActualHours,
		ComplianceRate:        ComplianceRate(record.ActualHours, record.ExpectedHours),
		IsSecondSession:       record.IsSecondSession,
		PreviousSessionID:     record.PreviousSessionID,
		CreatedAt:             record.CreatedAt.In(a.loc).Format(time.RFC3339),
		UpdatedAt:             record.UpdatedAt.In(a.loc).Format(time.RFC3339),
	}
}

func nextActionOf(current *attendance.Record) (attendance.Action, bool, error) {
	next, err := NextAction(current)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceAlreadyComplete) {
			return attendance.ActionCompleted, true, nil
		}
		return "", false, err
	}
	return next, false, nil
}

// classifyStoreError keeps uniqueness and sequence violations as they are and
// wraps every other store failure as a persistence error.
func classifyStoreError(err error) error {
	switch {
	case errors.Is(err, attendance.ErrDuplicateAttendanceForDay),
		errors.Is(err, attendance.ErrInvalidCheckSequence),
		errors.Is(err, attendance.ErrPersistenceFailure):
		return err
	}
	return attendance.NewPersistenceError(err)
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	rosterRepo roster.RosterRepository,
	audit auditlog.Sink,
	hub *sse.Hub,
	cfg config.AttendanceConfig,
	loc *time.Location,
) attendance.AttendanceService {
	return newAttendanceService(attendanceRepo, employeeRepo, rosterRepo, audit, hub, cfg, loc)
}

func newAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	rosterRepo roster.RosterRepository,
	audit auditlog.Sink,
	hub *sse.Hub,
	cfg config.AttendanceConfig,
	loc *time.Location,
) *AttendanceServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	if audit == nil {
		audit = auditlog.NopSink{}
	}
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		rosters:        NewRosterResolver(rosterRepo),
		guard:          NewUniquenessGuard(attendanceRepo, cfg, loc),
		audit:          audit,
		hub:            hub,
		loc:            loc,
		now:            time.Now,
	}
}
