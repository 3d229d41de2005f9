package notifications

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/you/otpauth/domain"
)

// DispatcherConfig controls the delivery worker pool
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxRetries  uint64
	BaseBackoff time.Duration
	SendTimeout time.Duration
}

type message struct {
	to      string
	subject string
	body    string
}

// Dispatcher implements domain.Notifier. Messages go onto a bounded queue
// drained by a fixed set of workers; each delivery is retried with
// exponential backoff. When the queue is full the message is dropped.
type Dispatcher struct {
	cfg       DispatcherConfig
	sender    domain.EmailSender
	logger    *slog.Logger
	ch        chan message
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	delivered atomic.Uint64

	// mu orders enqueueing against Close so no message lands after the drain
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewDispatcher starts cfg.Workers delivery goroutines
func NewDispatcher(cfg DispatcherConfig, sender domain.EmailSender, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}

	d := &Dispatcher{
		cfg:    cfg,
		sender: sender,
		logger: logger,
		ch:     make(chan message, cfg.QueueSize),
		done:   make(chan struct{}),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.run()
	}

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.ch:
			d.deliver(msg)
		case <-d.done:
			for {
				select {
				case msg := <-d.ch:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(msg message) {
	backoff := retry.WithMaxRetries(d.cfg.MaxRetries, retry.NewExponential(d.cfg.BaseBackoff))

	attempt := 0
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		attempt++
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()

		if err := d.sender.SendEmail(sendCtx, msg.to, msg.subject, msg.body); err != nil {
			d.logger.Debug("email delivery attempt failed", "to", msg.to, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		d.failed.Add(1)
		d.logger.Error("email delivery failed", "to", msg.to, "subject", msg.subject, "attempts", attempt, "error", err)
		return
	}
	d.delivered.Add(1)
}

// Send implements domain.Notifier. It never blocks.
func (d *Dispatcher) Send(to, subject, body string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.logger.Warn("email dropped after shutdown", "to", to, "subject", subject)
		return
	}

	select {
	case d.ch <- message{to: to, subject: subject, body: body}:
	default:
		d.dropped.Add(1)
		d.logger.Warn("email queue full, message dropped", "to", to, "subject", subject)
	}
}

// Close stops accepting messages and waits for queued ones to be delivered
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns how many messages were discarded without an attempt
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

// Failed returns how many messages exhausted their retries
func (d *Dispatcher) Failed() uint64 { return d.failed.Load() }

// Delivered returns how many messages were sent
func (d *Dispatcher) Delivered() uint64 { return d.delivered.Load() }

var _ domain.Notifier = (*Dispatcher)(nil)
