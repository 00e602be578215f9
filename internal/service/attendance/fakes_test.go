package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance/internal/pkg/sse"
	"github.com/google/uuid"
)

// memoryRepo is an in-memory AttendanceRepository that enforces at most one
// open record per user, like the partial unique index in Postgres.
type memoryRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance
	order   []string
	creates int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]attendance.Attendance)}
}

func (r *memoryRepo) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.IsOpen() {
		for _, existing := range r.records {
			if existing.UserID == a.UserID && existing.IsOpen() {
				return attendance.Attendance{}, attendance.ErrConcurrentCheckIn
			}
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.records[a.ID] = a
	r.order = append(r.order, a.ID)
	r.creates++
	return a, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.records[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return a, nil
}

func (r *memoryRepo) Update(ctx context.Context, a attendance.Attendance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[a.ID]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	a.UpdatedAt = time.Now()
	r.records[a.ID] = a
	return nil
}

func (r *memoryRepo) filter(keep func(attendance.Attendance) bool) []attendance.Attendance {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []attendance.Attendance
	for _, id := range r.order {
		if a := r.records[id]; keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (r *memoryRepo) ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]attendance.Attendance, error) {
	return r.filter(func(a attendance.Attendance) bool {
		return a.UserID == userID && a.Date.Equal(date)
	}), nil
}

func (r *memoryRepo) GetOpenByUser(ctx context.Context, userID string) (*attendance.Attendance, error) {
	open := r.filter(func(a attendance.Attendance) bool {
		return a.UserID == userID && a.IsOpen()
	})
	if len(open) == 0 {
		return nil, nil
	}
	return &open[0], nil
}

func (r *memoryRepo) ListOpen(ctx context.Context) ([]attendance.Attendance, error) {
	return r.filter(attendance.Attendance.IsOpen), nil
}

func (r *memoryRepo) ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]attendance.Attendance, error) {
	return r.filter(func(a attendance.Attendance) bool {
		return a.UserID == userID && !a.Date.Before(from) && !a.Date.After(to)
	}), nil
}

func (r *memoryRepo) ListByDate(ctx context.Context, date time.Time) ([]attendance.Attendance, error) {
	out := r.filter(func(a attendance.Attendance) bool { return a.Date.Equal(date) })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CheckIn == nil || out[j].CheckIn == nil {
			return out[j].CheckIn == nil && out[i].CheckIn != nil
		}
		return out[i].CheckIn.Time.Before(out[j].CheckIn.Time)
	})
	return out, nil
}

func (r *memoryRepo) List(ctx context.Context, f attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	all := r.filter(func(a attendance.Attendance) bool {
		if f.UserID != nil && a.UserID != *f.UserID {
			return false
		}
		if f.Status != nil && string(a.Status) != *f.Status {
			return false
		}
		return true
	})
	start := min((f.Page-1)*f.Limit, len(all))
	end := min(start+f.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *memoryRepo) openCount(userID string) int {
	return len(r.filter(func(a attendance.Attendance) bool {
		return a.UserID == userID && a.IsOpen()
	}))
}

// put stores a record as-is, bypassing the open-record check.
func (r *memoryRepo) put(a attendance.Attendance) attendance.Attendance {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.records[a.ID] = a
	r.order = append(r.order, a.ID)
	return a
}

// fakeRegistry serves shifts keyed by user and date.
type fakeRegistry struct {
	shifts map[string][]schedule.Shift
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{shifts: make(map[string][]schedule.Shift)}
}

func registryKey(userID string, date time.Time) string {
	return userID + "/" + date.Format("2006-01-02")
}

func (f *fakeRegistry) add(userID string, date time.Time, shifts ...schedule.Shift) {
	key := registryKey(userID, date)
	for _, s := range shifts {
		s.UserID = userID
		s.Date = date
		f.shifts[key] = append(f.shifts[key], s)
	}
}

func (f *fakeRegistry) ShiftsForUserOnDate(ctx context.Context, userID string, date time.Time) ([]schedule.Shift, error) {
	return f.shifts[registryKey(userID, date)], nil
}

// lockTransactor serializes per user with in-process mutexes.
type lockTransactor struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTransactor() *lockTransactor {
	return &lockTransactor{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTransactor) WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	t.mu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn(ctx)
}

func (t *lockTransactor) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// passthroughTransactor provides no serialization so the store's uniqueness
// check is the only guard.
type passthroughTransactor struct{}

func (passthroughTransactor) WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTransactor) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingNotifier keeps every published event.
type recordingNotifier struct {
	mu     sync.Mutex
	events []sse.Event
}

func (n *recordingNotifier) Publish(userID string, event sse.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Event)
	}
	return out
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
