package notify

import (
	"context"
	"sync"

	"github.com/nkiryanov/elbishomes/internal/logger"
)

const (
	defaultCountWorkers = 4
	defaultQueueSize    = 100
)

// Dispatcher sends messages in background workers
// Callers never wait for delivery and never see delivery errors: they are logged
type Dispatcher struct {
	countWorkers int
	queue        chan Message

	sender Sender
	logger logger.Logger
}

type DispatcherConfig struct {
	// Both fall back to defaults if not set
	CountWorkers int
	QueueSize    int
}

func NewDispatcher(cfg DispatcherConfig, sender Sender, logger logger.Logger) *Dispatcher {
	if cfg.CountWorkers <= 0 {
		cfg.CountWorkers = defaultCountWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	return &Dispatcher{
		countWorkers: cfg.CountWorkers,
		queue:        make(chan Message, cfg.QueueSize),
		sender:       sender,
		logger:       logger,
	}
}

// Enqueue message without blocking
// If the queue is full the message is dropped
func (d *Dispatcher) Dispatch(msg Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Error("Notification queue is full, message dropped", "subject", msg.Subject, "recipients", len(msg.To))
		return false
	}
}

// Start workers. They stop when ctx is done
// Returned channel is closed when all workers stopped
func (d *Dispatcher) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < d.countWorkers; i++ {
		wg.Add(1)
		go func() {
			d.worker(ctx)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		d.logger.Debug("Notification dispatcher stopped", "dropped", len(d.queue))
	}()

	return idleStopped
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-d.queue:
			err := d.sender.Send(ctx, msg)
			if err != nil {
				d.logger.Error("Failed to send notification", "error", err, "subject", msg.Subject, "recipients", len(msg.To))
				continue
			}
			d.logger.Debug("Notification sent", "subject", msg.Subject, "recipients", len(msg.To))
		}
	}
}
