package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFanoutJoinsErrors(t *testing.T) {
	errA := errors.New("a down")
	var delivered int32
	f := Fanout{
		NotifierFunc(func(context.Context, Notification) error { return errA }),
		nil,
		NotifierFunc(func(context.Context, Notification) error { atomic.AddInt32(&delivered, 1); return nil }),
	}

	err := f.Notify(context.Background(), Notification{Event: "allocation.submitted"})
	assert.ErrorIs(t, err, errA)
	assert.EqualValues(t, 1, delivered)
}

func TestDispatcherLogsFailureWithoutBlocking(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	release := make(chan struct{})

	d := NewDispatcher(NotifierFunc(func(ctx context.Context, n Notification) error {
		<-release
		return errors.New("broker unreachable")
	}), time.Second, zap.New(core))

	start := time.Now()
	d.Dispatch(Notification{Event: "allocation.allocated", Type: "EFT"})
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	d.Wait()

	entries := logs.FilterMessage("notification delivery failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "allocation.allocated", entries[0].ContextMap()["event"])
}

func TestDispatcherAppliesTimeout(t *testing.T) {
	var sawDeadline atomic.Bool
	d := NewDispatcher(NotifierFunc(func(ctx context.Context, n Notification) error {
		_, ok := ctx.Deadline()
		sawDeadline.Store(ok)
		<-ctx.Done()
		return ctx.Err()
	}), 20*time.Millisecond, zap.NewNop())

	d.Dispatch(Notification{Event: "allocation.submitted"})
	d.Wait()
	assert.True(t, sawDeadline.Load())
}

func TestDispatcherRecoversPanics(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	d := NewDispatcher(NotifierFunc(func(context.Context, Notification) error {
		panic("boom")
	}), time.Second, zap.New(core))

	d.Dispatch(Notification{Event: "allocation.duplicate"})
	d.Wait()
	assert.Equal(t, 1, logs.FilterMessage("notification panicked").Len())
}

type fakePublisher struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func TestAMQPNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewAMQPNotifier(pub, "backoffice.notifications")

	err := n.Notify(context.Background(), Notification{
		Event: "allocation.submitted", Title: "Submitted", Type: "Easypay", Count: 3, Severity: SeveritySuccess,
	})
	require.NoError(t, err)

	assert.Equal(t, "backoffice.notifications", pub.exchange)
	assert.Equal(t, "allocation.easypay.submitted", pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)

	var body Notification
	require.NoError(t, json.Unmarshal(pub.msg.Body, &body))
	assert.EqualValues(t, 3, body.Count)

	pub.err = errors.New("channel closed")
	assert.Error(t, n.Notify(context.Background(), Notification{Event: "allocation.submitted"}))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	failing := NotifierFunc(func(context.Context, Notification) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("down")
	})
	cfg := BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, ConsecutiveFailures: 2}
	n := WithBreaker("rabbitmq", failing, cfg, zap.NewNop())

	for i := 0; i < 2; i++ {
		assert.Error(t, n.Notify(context.Background(), Notification{}))
	}
	err := n.Notify(context.Background(), Notification{})
	assert.ErrorContains(t, err, "rabbitmq notifier unavailable")
	assert.EqualValues(t, 2, calls)
}

type recordingHub struct{ got []byte }

func (r *recordingHub) Publish(_ context.Context, msg []byte) error {
	r.got = msg
	return nil
}

func TestHubNotifierEnvelope(t *testing.T) {
	hub := &recordingHub{}
	require.NoError(t, NewHubNotifier(hub).Notify(context.Background(), Notification{Title: "Allocated"}))

	var env struct {
		Type    string       `json:"type"`
		Payload Notification `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(hub.got, &env))
	assert.Equal(t, "ALLOCATION_NOTIFICATION", env.Type)
	assert.Equal(t, "Allocated", env.Payload.Title)
}
