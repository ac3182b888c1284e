package attention

import (
	"sync"
	"time"
)

const (
	DefaultSampleInterval = 5 * time.Second
	// DefaultNoticeFor is how long the student's own "pay attention" notice stays up.
	DefaultNoticeFor = 3 * time.Second
)

// Reporter decides when an inattentive verdict becomes a signal to the host:
// at most one per Interval, and never while the previous notice is visible.
type Reporter struct {
	Interval  time.Duration
	NoticeFor time.Duration

	mu       sync.Mutex
	now      func() time.Time
	lastSent time.Time
}

func NewReporter(interval, noticeFor time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if noticeFor <= 0 {
		noticeFor = DefaultNoticeFor
	}
	return &Reporter{Interval: interval, NoticeFor: noticeFor, now: time.Now}
}

// Observe records a verdict and reports whether a signal should be sent.
func (r *Reporter) Observe(v Verdict) bool {
	if v != Inattentive {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.lastSent.IsZero() {
		since := now.Sub(r.lastSent)
		if since < r.NoticeFor || since < r.Interval {
			return false
		}
	}
	r.lastSent = now
	return true
}

// NoticeVisible reports whether the student's notice from the last signal is still up.
func (r *Reporter) NoticeVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.lastSent.IsZero() && r.now().Sub(r.lastSent) < r.NoticeFor
}
