// Package notify delivers order messages to chat channels.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/KAYner2/Theame-sub000/internal/metrics"
	"github.com/KAYner2/Theame-sub000/internal/model"
)

// Notifier sends text to every configured recipient. It never fails to its caller.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Channel is one messaging provider with its own recipient list.
type Channel interface {
	Name() string
	Recipients() []string
	Send(ctx context.Context, recipient, text string) error
}

// DeadLetterSink keeps sends that failed after the retry.
type DeadLetterSink interface {
	RecordFailedNotification(ctx context.Context, f model.FailedNotification) error
}

// Attempts per recipient: the first try plus exactly one retry.
const Attempts = 2

type Dispatcher struct {
	Channels    []Channel
	DeadLetters DeadLetterSink
	Timeout     time.Duration // per attempt
	Parallel    int
	Log         logrus.FieldLogger
}

func NewDispatcher(log logrus.FieldLogger, timeout time.Duration, dlq DeadLetterSink, channels ...Channel) *Dispatcher {
	return &Dispatcher{Channels: channels, DeadLetters: dlq, Timeout: timeout, Parallel: 8, Log: log}
}

// Notify fans text out to all (channel, recipient) pairs and waits for every task.
// Pairs are independent: one failing recipient never blocks the others.
func (d *Dispatcher) Notify(ctx context.Context, text string) {
	g := new(errgroup.Group)
	if d.Parallel > 0 {
		g.SetLimit(d.Parallel)
	}
	for _, ch := range d.Channels {
		for _, rcpt := range ch.Recipients() {
			ch, rcpt := ch, rcpt
			g.Go(func() error {
				d.deliver(ctx, ch, rcpt, text)
				return nil
			})
		}
	}
	_ = g.Wait()
}

// Recipients counts all configured destinations across channels.
func (d *Dispatcher) Recipients() int {
	n := 0
	for _, ch := range d.Channels {
		n += len(ch.Recipients())
	}
	return n
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, rcpt, text string) {
	log := d.logger().WithFields(logrus.Fields{"channel": ch.Name(), "recipient": rcpt})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("notify: send panicked")
			metrics.NotifySends.WithLabelValues(ch.Name(), "panic").Inc()
		}
	}()

	var err error
	for attempt := 1; attempt <= Attempts; attempt++ {
		err = d.attempt(ctx, ch, rcpt, text)
		if err == nil {
			metrics.NotifySends.WithLabelValues(ch.Name(), "sent").Inc()
			if attempt > 1 {
				log.WithField("attempt", attempt).Info("notify: delivered on retry")
			}
			return
		}
		log.WithError(err).WithField("attempt", attempt).Warn("notify: send failed")
	}
	metrics.NotifySends.WithLabelValues(ch.Name(), "failed").Inc()
	log.WithError(err).Error("notify: giving up on recipient")
	d.deadLetter(ctx, ch.Name(), rcpt, text, err)
}

func (d *Dispatcher) attempt(ctx context.Context, ch Channel, rcpt, text string) error {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	err := ch.Send(actx, rcpt, text)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.NotifyLatency.WithLabelValues(ch.Name(), status).Observe(float64(time.Since(start).Milliseconds()))
	return err
}

func (d *Dispatcher) deadLetter(ctx context.Context, channel, rcpt, text string, cause error) {
	if d.DeadLetters == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	f := model.FailedNotification{
		Channel:   channel,
		Recipient: rcpt,
		Text:      text,
		Error:     fmt.Sprint(cause),
		Attempts:  Attempts,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.DeadLetters.RecordFailedNotification(ctx, f); err != nil {
		d.logger().WithError(err).WithField("channel", channel).Error("notify: dead letter not recorded")
	}
}

func (d *Dispatcher) logger() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}
