package dbus

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/model"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []*model.Notification
	seen chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{seen: make(chan struct{}, 16)}
}

func (s *recordingSink) Publish(n *model.Notification) {
	s.mu.Lock()
	s.got = append(s.got, n)
	s.mu.Unlock()
	s.seen <- struct{}{}
}

func (s *recordingSink) summaries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.got))
	for _, n := range s.got {
		out = append(out, n.Summary)
	}
	return out
}

func quietMonitor() *Monitor {
	return NewMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func runLoop(ctx context.Context, m *Monitor, msgs <-chan *dbus.Message, lost <-chan struct{}, sink Publisher) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- m.loop(ctx, msgs, lost, sink)
	}()
	return done
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not return")
		return nil
	}
}

func TestMonitorLoop_PublishesInOrder(t *testing.T) {
	m := quietMonitor()
	sink := newRecordingSink()
	msgs := make(chan *dbus.Message, 3)
	msgs <- notifyMessage(notifyBody("one", nil))
	msgs <- notifyMessage(notifyBody("two", nil))
	msgs <- notifyMessage(notifyBody("three", nil))
	close(msgs)

	err := waitErr(t, runLoop(context.Background(), m, msgs, nil, sink))

	assert.ErrorIs(t, err, ErrTransportLost)
	assert.Equal(t, []string{"one", "two", "three"}, sink.summaries())
	assert.Equal(t, MonitorStats{Received: 3, Published: 3}, m.Stats())
}

func TestMonitorLoop_SkipsUndecodable(t *testing.T) {
	m := quietMonitor()
	sink := newRecordingSink()

	bad := notifyBody("bad", nil)
	bad[1] = "not a uint32"
	badImage := notifyBody("bad image", map[string]dbus.Variant{
		"image-data": imageVariant(int32(1), int32(1), int32(4), true, int32(8), int32(4), []byte{}),
	})

	msgs := make(chan *dbus.Message, 4)
	msgs <- notifyMessage(notifyBody("first", nil))
	msgs <- &dbus.Message{Type: dbus.TypeMethodCall, Headers: notifyMessage(nil).Headers, Body: bad}
	msgs <- notifyMessage(badImage)
	msgs <- notifyMessage(notifyBody("last", nil))
	close(msgs)

	_ = waitErr(t, runLoop(context.Background(), m, msgs, nil, sink))

	assert.Equal(t, []string{"first", "last"}, sink.summaries())
	stats := m.Stats()
	assert.Equal(t, uint64(4), stats.Received)
	assert.Equal(t, uint64(2), stats.Dropped)
}

func TestMonitorLoop_IgnoresOtherTraffic(t *testing.T) {
	m := quietMonitor()
	sink := newRecordingSink()

	wrongMember := notifyMessage(notifyBody("x", nil))
	wrongMember.Headers[dbus.FieldMember] = dbus.MakeVariant("CloseNotification")
	wrongPath := notifyMessage(notifyBody("x", nil))
	wrongPath.Headers[dbus.FieldPath] = dbus.MakeVariant(dbus.ObjectPath("/elsewhere"))
	signal := notifyMessage(notifyBody("x", nil))
	signal.Type = dbus.TypeSignal

	msgs := make(chan *dbus.Message, 4)
	msgs <- wrongMember
	msgs <- wrongPath
	msgs <- signal
	msgs <- nil
	close(msgs)

	_ = waitErr(t, runLoop(context.Background(), m, msgs, nil, sink))

	assert.Empty(t, sink.summaries())
	assert.Equal(t, MonitorStats{}, m.Stats())
}

func TestMonitorLoop_ShutdownReturnsNil(t *testing.T) {
	m := quietMonitor()
	sink := newRecordingSink()
	msgs := make(chan *dbus.Message)
	ctx, cancel := context.WithCancel(context.Background())

	done := runLoop(ctx, m, msgs, nil, sink)
	msgs <- notifyMessage(notifyBody("before", nil))
	<-sink.seen

	cancel()
	assert.NoError(t, waitErr(t, done))
	assert.Equal(t, []string{"before"}, sink.summaries())
}

// gatedSink holds every Publish until release is closed.
type gatedSink struct {
	*recordingSink
	entered chan struct{}
	release chan struct{}
}

func (s *gatedSink) Publish(n *model.Notification) {
	s.entered <- struct{}{}
	<-s.release
	s.recordingSink.Publish(n)
}

func TestMonitorLoop_ShutdownKeepsInFlightMessage(t *testing.T) {
	m := quietMonitor()
	sink := &gatedSink{
		recordingSink: newRecordingSink(),
		entered:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	msgs := make(chan *dbus.Message)
	ctx, cancel := context.WithCancel(context.Background())

	done := runLoop(ctx, m, msgs, nil, sink)
	msgs <- notifyMessage(notifyBody("in flight", nil))
	<-sink.entered

	cancel()
	close(sink.release)

	assert.NoError(t, waitErr(t, done))
	assert.Equal(t, []string{"in flight"}, sink.summaries())
	assert.Equal(t, MonitorStats{Received: 1, Published: 1}, m.Stats())
}

func TestMonitorLoop_ShutdownWithClosedChannel(t *testing.T) {
	m := quietMonitor()
	msgs := make(chan *dbus.Message)
	close(msgs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, waitErr(t, runLoop(ctx, m, msgs, nil, newRecordingSink())))
}

func TestMonitorLoop_TransportLost(t *testing.T) {
	m := quietMonitor()
	msgs := make(chan *dbus.Message)
	lost := make(chan struct{})

	done := runLoop(context.Background(), m, msgs, lost, newRecordingSink())
	close(lost)

	err := waitErr(t, done)
	require.Error(t, err)

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, "receive", ingestErr.Op)
	assert.ErrorIs(t, err, ErrTransportLost)
}

func TestIsNotifyCall(t *testing.T) {
	assert.True(t, isNotifyCall(notifyMessage(notifyBody("x", nil))))
	assert.False(t, isNotifyCall(nil))
	assert.False(t, isNotifyCall(&dbus.Message{Type: dbus.TypeMethodCall}))
}
