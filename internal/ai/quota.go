package ai

import (
	"sync"

	"cvmatch/internal/errors"
)

// DailyLimitMessage is returned once the local quota for the day is used up
const DailyLimitMessage = "Daily API request limit exceeded. Please try again tomorrow."

const dayLayout = "2006-01-02"

// DailyQuota caps model invocations per local calendar day. A call first
// reserves a slot, then either commits it (the call completed) or releases
// it (the call failed or was cancelled). Outstanding reservations count
// against the limit.
type DailyQuota struct {
	mu sync.Mutex

	limit int
	clock Clock

	day      string
	used     int
	inFlight int
}

// QuotaSnapshot is a point-in-time view of the counter
type QuotaSnapshot struct {
	RequestsToday int    `json:"requestsToday"`
	InFlight      int    `json:"inFlight"`
	Limit         int    `json:"limit"`
	Remaining     int    `json:"remaining"`
	LastResetDate string `json:"lastResetDate"`
}

// NewDailyQuota creates a quota. A nil clock means the wall clock.
func NewDailyQuota(limit int, clock Clock) *DailyQuota {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DailyQuota{
		limit: limit,
		clock: clock,
		day:   clock.Now().Format(dayLayout),
	}
}

// rollover must be called with mu held
func (q *DailyQuota) rollover() {
	if today := q.clock.Now().Format(dayLayout); today != q.day {
		q.day = today
		q.used = 0
	}
}

// Reserve claims a slot for one model call
func (q *DailyQuota) Reserve() (*Reservation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.used+q.inFlight >= q.limit {
		return nil, errors.NewRateLimitError(errors.ErrCodeDailyLimitExceeded, DailyLimitMessage, nil).
			WithContext("limit", q.limit).
			WithContext("date", q.day)
	}
	q.inFlight++
	return &Reservation{quota: q}, nil
}

// Snapshot returns the current counter state
func (q *DailyQuota) Snapshot() QuotaSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return QuotaSnapshot{
		RequestsToday: q.used,
		InFlight:      q.inFlight,
		Limit:         q.limit,
		Remaining:     max(0, q.limit-q.used-q.inFlight),
		LastResetDate: q.day,
	}
}

// Reservation is a claimed quota slot. Only the first Commit or Release has an effect.
type Reservation struct {
	quota *DailyQuota
	done  bool
}

// Commit counts the call against the current day
func (r *Reservation) Commit() {
	r.finish(true)
}

// Release gives the slot back without counting it
func (r *Reservation) Release() {
	r.finish(false)
}

func (r *Reservation) finish(count bool) {
	q := r.quota
	q.mu.Lock()
	defer q.mu.Unlock()

	if r.done {
		return
	}
	r.done = true
	q.inFlight--
	q.rollover()
	if count {
		q.used++
	}
}
