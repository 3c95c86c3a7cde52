// Package notify delivers workflow notifications to connected staff and downstream consumers.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is the payload pushed after a bulk transition commits.
type Notification struct {
	Event    string    `json:"event"` // e.g. allocation.submitted
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Type     string    `json:"type,omitempty"` // transaction family
	Count    int64     `json:"count"`
	At       time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range f {
		if target == nil {
			continue
		}
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher sends notifications in the background so callers never wait on delivery.
type Dispatcher struct {
	target  Notifier
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(target Notifier, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{target: target, timeout: timeout, log: log}
}

// Dispatch returns immediately. Delivery runs with its own timeout, detached from any request context.
func (d *Dispatcher) Dispatch(n Notification) {
	if d == nil || d.target == nil {
		return
	}
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notification panicked", zap.String("event", n.Event), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.target.Notify(ctx, n); err != nil {
			d.log.Warn("notification delivery failed",
				zap.String("event", n.Event),
				zap.String("type", n.Type),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until in-flight notifications finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
