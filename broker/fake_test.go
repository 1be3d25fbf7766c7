package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic   string
	payload string
}

type fakeSession struct {
	mu        sync.Mutex
	connected bool
	failures  int // Connect calls that fail before one succeeds
	connects  int
	hang      bool
	sent      []published
	pubErr    error
}

func (s *fakeSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeSession) Connect() mqtt.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if s.hang {
		return pendingToken()
	}
	if s.connects <= s.failures {
		return doneToken(errors.New("connection refused: not authorized"))
	}
	s.connected = true
	return doneToken(nil)
}

func (s *fakeSession) Disconnect(uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

func (s *fakeSession) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, published{topic: topic, payload: payload.(string)})
	return doneToken(s.pubErr)
}

type fakeNetwork struct {
	up       bool
	acquires int
	err      error
}

func (n *fakeNetwork) Connected(context.Context) bool { return n.up }
func (n *fakeNetwork) Acquire(context.Context) error {
	n.acquires++
	if n.err != nil {
		return n.err
	}
	n.up = true
	return nil
}

type fakeIndicator struct {
	on     bool
	blinks []time.Duration
}

func (f *fakeIndicator) On()  { f.on = true }
func (f *fakeIndicator) Off() { f.on = false }
func (f *fakeIndicator) Blink(_ context.Context, d time.Duration, _ time.Duration) error {
	f.blinks = append(f.blinks, d)
	return nil
}
