package postgresqltest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var workDate = time.Date(2025, time.November, 24, 0, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	ctx := context.Background()

	setup, err := NewTestDatabase(ctx)
	if errors.Is(err, ErrNoTestDatabase) {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres tests")
	}
	require.NoError(t, err)
	require.NoError(t, setup.TruncateAllTables(ctx))
	t.Cleanup(setup.Close)

	return setup
}

func insertUser(t *testing.T, setup *TestDatabaseSetup, name string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := setup.DB.Exec(context.Background(),
		"INSERT INTO users (id, full_name) VALUES ($1, $2)", id, name)
	require.NoError(t, err)
	return id
}

func openRecord(userID string, checkIn time.Time) attendance.Attendance {
	snapshot := attendance.ShiftSnapshot{
		ShiftID: uuid.NewString(),
		Kind:    schedule.ShiftKindMorning,
		Start:   schedule.NewClock(8, 30),
		End:     schedule.NewClock(12, 0),
		Minutes: 210,
	}
	address := "10.0.0.5"
	return attendance.NewCheckedIn(userID, workDate, snapshot, attendance.CheckIn{
		Time:        checkIn,
		Address:     &address,
		LateMinutes: 15,
	}, nil)
}

func TestAttendanceRepository_CreateAndGet(t *testing.T) {
	setup := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	ctx := context.Background()
	userID := insertUser(t, setup, "Nguyen Van A")

	checkIn := time.Date(2025, time.November, 24, 1, 45, 0, 0, time.UTC)
	created, err := repo.Create(ctx, openRecord(userID, checkIn))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusCheckedIn, got.Status)
	assert.True(t, got.Date.Equal(workDate))
	require.NotNil(t, got.Shift)
	assert.Equal(t, schedule.NewClock(8, 30), got.Shift.Start)
	assert.Equal(t, schedule.NewClock(12, 0), got.Shift.End)
	assert.Equal(t, 210, got.Shift.Minutes)
	require.NotNil(t, got.CheckIn)
	assert.True(t, got.CheckIn.Time.Equal(checkIn))
	assert.Equal(t, 15, got.CheckIn.LateMinutes)
	assert.Nil(t, got.CheckOut)
	require.NotNil(t, got.UserName)
	assert.Equal(t, "Nguyen Van A", *got.UserName)
}

func TestAttendanceRepository_GetByID_NotFound(t *testing.T) {
	setup := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestAttendanceRepository_OneOpenRecordPerUser(t *testing.T) {
	setup := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	ctx := context.Background()
	userID := insertUser(t, setup, "Tran Thi B")

	checkIn := time.Date(2025, time.November, 24, 1, 30, 0, 0, time.UTC)
	_, err := repo.Create(ctx, openRecord(userID, checkIn))
	require.NoError(t, err)

	_, err = repo.Create(ctx, openRecord(userID, checkIn.Add(time.Hour)))
	assert.ErrorIs(t, err, attendance.ErrConcurrentCheckIn)
}

func TestAttendanceRepository_UpdateCompletes(t *testing.T) {
	setup := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	ctx := context.Background()
	userID := insertUser(t, setup, "Le Van C")

	checkIn := time.Date(2025, time.November, 24, 1, 45, 0, 0, time.UTC)
	rec, err := repo.Create(ctx, openRecord(userID, checkIn))
	require.NoError(t, err)

	require.NoError(t, rec.Complete(attendance.CheckOut{
		Time:              checkIn.Add(185 * time.Minute),
		WorkingMinutes:    185,
		EarlyLeaveMinutes: 10,
		CompletionRate:    88.1,
	}))
	rec.AppendNote("left for a client meeting")
	require.NoError(t, repo.Update(ctx, rec))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusCompleted, got.Status)
	require.NotNil(t, got.CheckOut)
	assert.Equal(t, 185, got.CheckOut.WorkingMinutes)
	assert.Equal(t, 10, got.CheckOut.EarlyLeaveMinutes)
	assert.InDelta(t, 88.1, got.CheckOut.CompletionRate, 0.001)
	require.NotNil(t, got.Note)

	open, err := repo.GetOpenByUser(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, open)

	// A new open record is allowed once the previous one is completed
	_, err = repo.Create(ctx, openRecord(userID, checkIn.Add(5*time.Hour)))
	assert.NoError(t, err)
}

func TestAttendanceRepository_ListByDateOrdersByCheckIn(t *testing.T) {
	setup := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	ctx := context.Background()

	late := insertUser(t, setup, "Late")
	early := insertUser(t, setup, "Early")
	base := time.Date(2025, time.November, 24, 1, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, openRecord(late, base.Add(50*time.Minute)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, openRecord(early, base.Add(20*time.Minute)))
	require.NoError(t, err)

	records, err := repo.ListByDate(ctx, workDate)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, early, records[0].UserID)
	assert.Equal(t, late, records[1].UserID)
}

func TestAttendanceRepository_ListFilters(t *testing.T) {
	setup := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	ctx := context.Background()
	userID := insertUser(t, setup, "Pham D")
	other := insertUser(t, setup, "Hoang E")

	checkIn := time.Date(2025, time.November, 24, 1, 30, 0, 0, time.UTC)
	_, err := repo.Create(ctx, openRecord(userID, checkIn))
	require.NoError(t, err)
	_, err = repo.Create(ctx, openRecord(other, checkIn))
	require.NoError(t, err)

	month, year := 11, 2025
	status := string(attendance.StatusCheckedIn)
	records, total, err := repo.List(ctx, attendance.AttendanceFilter{
		UserID: &userID,
		Status: &status,
		Month:  &month,
		Year:   &year,
		Page:   1,
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, userID, records[0].UserID)

	inRange, err := repo.ListByUserAndRange(ctx, userID, workDate.AddDate(0, 0, -1), workDate)
	require.NoError(t, err)
	assert.Len(t, inRange, 1)

	open, err := repo.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestTransactor_SerializesPerUser(t *testing.T) {
	setup := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)
	userID := insertUser(t, setup, "Vu F")
	checkIn := time.Date(2025, time.November, 24, 1, 30, 0, 0, time.UTC)

	var wg sync.WaitGroup
	results := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = tx.WithUserLock(context.Background(), userID, func(ctx context.Context) error {
				open, err := repo.GetOpenByUser(ctx, userID)
				if err != nil {
					return err
				}
				if open != nil {
					return attendance.ErrOpenShiftBlocking
				}
				_, err = repo.Create(ctx, openRecord(userID, checkIn))
				return err
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, attendance.ErrOpenShiftBlocking)
	}
	assert.Equal(t, 1, succeeded)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	setup := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)
	userID := insertUser(t, setup, "Dang G")
	checkIn := time.Date(2025, time.November, 24, 1, 30, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := tx.WithUserLock(context.Background(), userID, func(ctx context.Context) error {
		if _, err := repo.Create(ctx, openRecord(userID, checkIn)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	open, err := repo.GetOpenByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, open)
}
