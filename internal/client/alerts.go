package client

import (
	"sort"
	"sync"
	"time"
)

const DefaultAlertFor = 5 * time.Second

// AlertBoard holds the host's visible inattentiveness alerts. Each alert
// clears itself after a fixed time; a repeat report restarts the clock.
type AlertBoard struct {
	For     time.Duration
	OnClear func(name string)

	mu     sync.Mutex
	active map[string]*time.Timer
}

func NewAlertBoard(d time.Duration) *AlertBoard {
	if d <= 0 {
		d = DefaultAlertFor
	}
	return &AlertBoard{For: d, active: make(map[string]*time.Timer)}
}

func (b *AlertBoard) Show(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.active[name]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(b.For, func() {
		b.mu.Lock()
		if b.active[name] != t {
			b.mu.Unlock()
			return
		}
		delete(b.active, name)
		fn := b.OnClear
		b.mu.Unlock()
		if fn != nil {
			fn(name)
		}
	})
	b.active[name] = t
}

func (b *AlertBoard) Active() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.active))
	for name := range b.active {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (b *AlertBoard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, t := range b.active {
		t.Stop()
		delete(b.active, name)
	}
}
