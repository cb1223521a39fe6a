package crmsync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/intake/internal/logging"
)

// Message kinds reported to FailureRecorder.
const (
	KindContact      = "contact"
	KindConfirmation = "confirmation"
)

// FailureRecorder counts failed publishes. *metrics.Metrics implements it.
type FailureRecorder interface {
	IncrementSyncFailure(kind string)
}

// Config configures a Dispatcher.
type Config struct {
	ContactTopic      string
	ConfirmationTopic string
	Timeout           time.Duration
	Concurrency       int
}

// Dispatcher fans an order out to the contact and confirmation topics.
type Dispatcher struct {
	pub      Publisher
	cfg      Config
	failures FailureRecorder

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. failures may be nil.
func NewDispatcher(pub Publisher, cfg Config, failures FailureRecorder) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Dispatcher{pub: pub, cfg: cfg, failures: failures}
}

// Sync publishes every contact of the order, then the confirmation.
// Contacts are published concurrently up to the configured limit. The
// first failure is returned after all publishes have been attempted.
func (d *Dispatcher) Sync(ctx context.Context, order Order) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	log := logging.WithFields(ctx, "order_id", order.ID, "firm_id", order.Firm.ID)

	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for _, c := range order.Contacts() {
		g.Go(func() error {
			if err := d.publish(ctx, d.cfg.ContactTopic, c.Key(), c); err != nil {
				d.recordFailure(KindContact)
				log.Error("contact sync failed", "kind", c.Kind, "entity_id", c.EntityID, "error", err)
				return err
			}
			return nil
		})
	}
	contactErr := g.Wait()

	if err := d.publish(ctx, d.cfg.ConfirmationTopic, order.ID, order.Confirmation()); err != nil {
		d.recordFailure(KindConfirmation)
		log.Error("order confirmation failed", "error", err)
		if contactErr == nil {
			return err
		}
	}
	if contactErr != nil {
		return contactErr
	}

	log.Info("order synced", "contacts", len(order.Entities)+1, "total", order.Quote.Total.StringFixed(2))
	return nil
}

// DispatchAsync runs Sync in the background. The sync outlives the request
// context but keeps its values for logging. Errors are logged only.
func (d *Dispatcher) DispatchAsync(ctx context.Context, order Order) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.Sync(ctx, order); err != nil {
			logging.FromContext(ctx).Error("background sync failed", "order_id", order.ID, "error", err)
		}
	}()
}

// Wait blocks until background syncs finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
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

func (d *Dispatcher) publish(ctx context.Context, topic, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", topic, err)
	}
	return d.pub.Publish(ctx, topic, []byte(key), value)
}

func (d *Dispatcher) recordFailure(kind string) {
	if d.failures != nil {
		d.failures.IncrementSyncFailure(kind)
	}
}
