package data

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// holder for the latest value published on each topic, served on the web
// endpoint and read by the WOW reporter

type Reading struct {
	Topic string    `json:"topic"`
	Value float64   `json:"value"`
	Time  time.Time `json:"time"`
}

type Snapshot struct {
	lock     sync.RWMutex
	readings map[string]Reading
	clock    clockwork.Clock
}

func CreateSnapshot(clock clockwork.Clock) *Snapshot {
	return &Snapshot{
		readings: make(map[string]Reading),
		clock:    clock,
	}
}

func (s *Snapshot) Record(topic string, value float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.readings[topic] = Reading{Topic: topic, Value: value, Time: s.clock.Now()}
}

func (s *Snapshot) Get(topic string) (Reading, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	r, ok := s.readings[topic]
	return r, ok
}

// Fresh returns the reading for topic if it was recorded no more than maxAge ago.
func (s *Snapshot) Fresh(topic string, maxAge time.Duration) (Reading, bool) {
	r, ok := s.Get(topic)
	if !ok || s.clock.Since(r.Time) > maxAge {
		return Reading{}, false
	}
	return r, true
}

// All returns the readings ordered by topic.
func (s *Snapshot) All() []Reading {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make([]Reading, 0, len(s.readings))
	for _, r := range s.readings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}
