package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkpost/blog-platform/internal/api/metrics"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 30 * time.Second
)

// Dispatcher delivers best-effort mail on a fixed set of workers. Messages are
// sharded by recipient so mail to one address keeps its enqueue order.
type Dispatcher struct {
	workers []chan ports.OutgoingMail
	mailer  ports.Mailer
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.OutgoingMail, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.OutgoingMail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when ctx is cancelled or
// once Shutdown has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a message to the worker responsible for its recipient. It
// never blocks: when the worker's buffer is full the message is dropped and
// logged.
func (d *Dispatcher) Enqueue(mail ports.OutgoingMail) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn().Str("to", mail.To).Str("subject", mail.Subject).Msg("mail dispatcher closed, message dropped")
		return
	}

	id := d.shardIndex(mail.To)
	// Inc before the send: the worker may Dec as soon as the message lands.
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id))
	depth.Inc()
	select {
	case d.workers[id] <- mail:
	default:
		depth.Dec()
		metrics.MailDeliveriesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		d.log.Warn().
			Str("to", mail.To).
			Str("subject", mail.Subject).
			Int("worker_id", id).
			Msg("mail queue full, message dropped")
	}
}

// Shutdown stops accepting messages and waits for queued ones to be sent,
// or for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.OutgoingMail) {
	defer d.wg.Done()
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case mail, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.deliver(ctx, id, mail)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, mail ports.OutgoingMail) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.mailer.Send(sendCtx, mail.To, mail.Subject, mail.HTML)
	metrics.MailDeliveryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		d.log.Error().Err(err).
			Str("to", mail.To).
			Str("subject", mail.Subject).
			Int("worker_id", id).
			Msg("mail delivery failed")
		return
	}
	metrics.MailDeliveriesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
}
