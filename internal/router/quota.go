// File path: internal/router/quota.go
package router

import (
	"sync"
	"time"
)

// QuotaCounter enforces a daily call budget on a costly tier. The counter is
// keyed by calendar day and resets when the day changes. Increment-then-check
// happens under one lock so concurrent callers cannot exceed the limit.
type QuotaCounter struct {
	mu      sync.Mutex
	dateKey string
	used    int
	limit   int
	now     func() time.Time
}

// NewQuotaCounter creates a counter with the given daily limit. A limit of
// zero or less means unlimited.
func NewQuotaCounter(limit int) *QuotaCounter {
	return &QuotaCounter{limit: limit, now: time.Now}
}

// Allow consumes one unit of today's budget. It returns false, without
// consuming, once the limit is reached.
func (q *QuotaCounter) Allow() bool {
	if q == nil {
		return true
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	day := q.now().Format("2006-01-02")
	if day != q.dateKey {
		q.dateKey = day
		q.used = 0
	}
	if q.limit > 0 && q.used >= q.limit {
		return false
	}
	q.used++
	return true
}

// Used reports today's consumed budget.
func (q *QuotaCounter) Used() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.now().Format("2006-01-02") != q.dateKey {
		return 0
	}
	return q.used
}
