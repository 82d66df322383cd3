package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dalemusser/donorhub/internal/app/system/metrics"
	"github.com/dalemusser/donorhub/internal/app/system/timeouts"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Notifier is what services depend on to fire an email.
type Notifier interface {
	Notify(e Email)
}

var ErrQueueFull = errors.New("mailer: notification queue full")

// Dispatcher queues notifications and delivers them from worker goroutines.
// Notify never blocks and never returns an error: failures are logged and
// counted.
//
// With a Kafka writer configured, Notify publishes to the topic and a reader
// feeds the workers, so queued mail survives a restart. Otherwise an
// in-process buffered channel is used.
type Dispatcher struct {
	sender  Sender
	log     *zap.Logger
	workers int

	queue  chan Email
	writer *kafka.Writer
	reader *kafka.Reader

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// KafkaConfig enables the Kafka-backed queue when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewDispatcher returns a dispatcher with the given worker count and channel
// buffer size.
func NewDispatcher(sender Sender, log *zap.Logger, workers, buffer int, kc KafkaConfig) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 256
	}
	d := &Dispatcher{
		sender:  sender,
		log:     log,
		workers: workers,
		queue:   make(chan Email, buffer),
	}
	if len(kc.Brokers) > 0 {
		d.writer = &kafka.Writer{
			Addr:         kafka.TCP(kc.Brokers...),
			Topic:        kc.Topic,
			Balancer:     &kafka.LeastBytes{},
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					metrics.Notifications.WithLabelValues("dropped").Add(float64(len(messages)))
					log.Error("failed to publish notifications",
						zap.Error(err),
						zap.Int("message_count", len(messages)))
				}
			},
		}
		d.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers: kc.Brokers,
			Topic:   kc.Topic,
			GroupID: kc.GroupID,
		})
	}
	return d
}

// Start launches the workers (and the Kafka consumer when configured).
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
	if d.reader != nil {
		d.wg.Add(1)
		go d.consume(ctx)
	}
	d.log.Info("notification dispatcher started",
		zap.Int("workers", d.workers),
		zap.Bool("kafka", d.writer != nil))
}

// Stop cancels the workers and waits for them. Messages still buffered in the
// channel are drained first.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	if d.writer != nil {
		if err := d.writer.Close(); err != nil {
			d.log.Warn("close kafka writer", zap.Error(err))
		}
	}
	if d.reader != nil {
		if err := d.reader.Close(); err != nil {
			d.log.Warn("close kafka reader", zap.Error(err))
		}
	}
	d.log.Info("notification dispatcher stopped")
}

// Notify enqueues e without blocking.
func (d *Dispatcher) Notify(e Email) {
	if len(e.To) == 0 {
		return
	}
	if err := d.enqueue(e); err != nil {
		metrics.Notifications.WithLabelValues("dropped").Inc()
		d.log.Warn("notification not queued",
			zap.Strings("to", e.To),
			zap.String("subject", e.Subject),
			zap.Error(err))
	}
}

func (d *Dispatcher) enqueue(e Email) error {
	if d.writer != nil {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		// Async writer: returns once the message is buffered.
		return d.writer.WriteMessages(context.Background(), kafka.Message{Value: b})
	}
	select {
	case d.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) consume(ctx context.Context) {
	defer d.wg.Done()
	for {
		msg, err := d.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Warn("read notification", zap.Error(err))
			continue
		}
		var e Email
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			d.log.Warn("discarding malformed notification",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}
		select {
		case d.queue <- e:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case e := <-d.queue:
			d.deliver(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-d.queue:
					d.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(e Email) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Notify())
	defer cancel()
	if err := d.sender.Send(ctx, e); err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		d.log.Warn("notification send failed",
			zap.Strings("to", e.To),
			zap.String("subject", e.Subject),
			zap.Error(err))
		return
	}
	metrics.Notifications.WithLabelValues("sent").Inc()
}
