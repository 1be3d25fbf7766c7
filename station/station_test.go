package station

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type fakeStation struct {
	interval  time.Duration
	heartbeat time.Duration
	setupErr  error
	measured  int
	idle      []float64
	onMeasure func(n int)
}

func (f *fakeStation) Topics() Topics                   { return Topics{Root: "ic/test"} }
func (f *fakeStation) Interval() time.Duration          { return f.interval }
func (f *fakeStation) HeartbeatInterval() time.Duration { return f.heartbeat }
func (f *fakeStation) Setup(context.Context) error      { return f.setupErr }

func (f *fakeStation) Measure(context.Context) error {
	f.measured++
	if f.onMeasure != nil {
		f.onMeasure(f.measured)
	}
	return nil
}

func (f *fakeStation) Idle(_ *CycleState, percent float64) {
	f.idle = append(f.idle, percent)
}

type fakeSession struct{ connected bool }

func (s *fakeSession) IsConnected() bool { return s.connected }

type fakeConnector struct {
	session *fakeSession
	calls   int
	err     error
}

func (c *fakeConnector) Connect(context.Context) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	c.session.connected = true
	return nil
}

func TestTickSchedule(t *testing.T) {
	fc := clockwork.NewFakeClock()
	st := &fakeStation{interval: 30 * time.Second, heartbeat: 5 * time.Second}
	session := &fakeSession{connected: true}
	l := NewLoop(st, session, &fakeConnector{session: session}, fc, time.Second)
	cs := &CycleState{}
	ctx := context.Background()

	// first tick measures straight away
	require.NoError(t, l.Tick(ctx, cs))
	require.Equal(t, 1, st.measured)

	fc.Advance(3 * time.Second)
	require.NoError(t, l.Tick(ctx, cs))
	require.Len(t, st.idle, 1)
	require.InDelta(t, 10.0, st.idle[0], 1e-9)

	fc.Advance(2 * time.Second)
	require.NoError(t, l.Tick(ctx, cs))
	require.Len(t, st.idle, 1)

	fc.Advance(4 * time.Second)
	require.NoError(t, l.Tick(ctx, cs))
	require.Len(t, st.idle, 2)
	require.InDelta(t, 30.0, st.idle[1], 1e-9)

	// exactly one interval since the last cycle is not yet due
	fc.Advance(21 * time.Second)
	require.NoError(t, l.Tick(ctx, cs))
	require.Equal(t, 1, st.measured)

	fc.Advance(time.Second)
	require.NoError(t, l.Tick(ctx, cs))
	require.Equal(t, 2, st.measured)
	require.Equal(t, 2, cs.Cycles)
}

func TestTickReconnects(t *testing.T) {
	fc := clockwork.NewFakeClock()
	st := &fakeStation{interval: time.Minute, heartbeat: time.Second}
	session := &fakeSession{}
	conn := &fakeConnector{session: session}
	l := NewLoop(st, session, conn, fc, time.Second)

	require.NoError(t, l.Tick(context.Background(), &CycleState{}))
	require.Equal(t, 1, conn.calls)
	require.True(t, session.connected)
	require.Equal(t, 1, st.measured)
}

func TestTickConnectFailure(t *testing.T) {
	session := &fakeSession{}
	boom := errors.New("exhausted")
	st := &fakeStation{interval: time.Minute}
	l := NewLoop(st, session, &fakeConnector{session: session, err: boom}, clockwork.NewFakeClock(), time.Second)

	require.Equal(t, boom, l.Tick(context.Background(), &CycleState{}))
	require.Equal(t, 0, st.measured)
}

func TestRunUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := &fakeStation{heartbeat: time.Hour}
	st.onMeasure = func(n int) {
		if n == 3 {
			cancel()
		}
	}
	session := &fakeSession{}
	conn := &fakeConnector{session: session}
	l := NewLoop(st, session, conn, clockwork.NewRealClock(), time.Millisecond)

	err := l.Run(ctx)
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, 3, st.measured)
	require.Equal(t, 1, conn.calls)
}

func TestRunSetupFailure(t *testing.T) {
	boom := errors.New("calibration failed")
	st := &fakeStation{setupErr: boom}
	session := &fakeSession{}
	l := NewLoop(st, session, &fakeConnector{session: session}, clockwork.NewRealClock(), time.Millisecond)

	require.Equal(t, boom, l.Run(context.Background()))
	require.Equal(t, 0, st.measured)
}
