package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
)

// DispatcherConfig tunes the outbox polling loop
type DispatcherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	RetryBackoff time.Duration // base; doubles per attempt
}

func (c *DispatcherConfig) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 30 * time.Second
	}
}

// OutboxDispatcher polls the outbox for committed side-effect intents and
// executes them: emails through the notifier, acceptance documents through
// the generator. Delivery is at-least-once; failed messages are retried with
// exponential backoff until MaxAttempts, then parked as FAILED. The
// dispatcher never touches application status or the workflow log.
type OutboxDispatcher struct {
	outbox   port.OutboxRepository
	apps     port.ApplicationRepository
	notifier port.Notifier
	docs     port.DocumentGenerator
	cfg      DispatcherConfig
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewOutboxDispatcher creates an outbox dispatcher
func NewOutboxDispatcher(
	outbox port.OutboxRepository,
	apps port.ApplicationRepository,
	notifier port.Notifier,
	docs port.DocumentGenerator,
	cfg DispatcherConfig,
	logger *zap.Logger,
) *OutboxDispatcher {
	cfg.applyDefaults()
	return &OutboxDispatcher{
		outbox:   outbox,
		apps:     apps,
		notifier: notifier,
		docs:     docs,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start starts the dispatch loop
func (d *OutboxDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isRunning {
		return fmt.Errorf("outbox dispatcher is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.isRunning = true
	d.done = make(chan struct{})

	d.logger.Info("OutboxDispatcher started",
		zap.Duration("poll_interval", d.cfg.PollInterval),
		zap.Int("batch_size", d.cfg.BatchSize))

	go d.loop()
	return nil
}

// Stop stops the dispatch loop and waits for the in-flight batch
func (d *OutboxDispatcher) Stop() {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return
	}
	d.isRunning = false
	d.cancel()
	done := d.done
	d.mu.Unlock()

	<-done
	d.logger.Info("OutboxDispatcher stopped")
}

// Name returns the worker name for identification
func (d *OutboxDispatcher) Name() string {
	return "OutboxDispatcher"
}

func (d *OutboxDispatcher) loop() {
	defer close(d.done)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	d.DispatchDue(d.ctx)

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.DispatchDue(d.ctx)
		}
	}
}

// DispatchDue processes one batch of due messages. Exported so callers can
// flush the outbox on demand, e.g. in tests or a drain command.
func (d *OutboxDispatcher) DispatchDue(ctx context.Context) {
	messages, err := d.outbox.ListDue(ctx, time.Now(), d.cfg.BatchSize)
	if err != nil {
		d.logger.Error("Failed to list due outbox messages", zap.Error(err))
		return
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			return
		}
		if err := d.execute(ctx, msg); err != nil {
			d.retry(ctx, msg, err)
			continue
		}
		if err := d.outbox.MarkSent(ctx, msg.ID, time.Now()); err != nil {
			d.logger.Error("Failed to mark outbox message sent",
				zap.Int64("id", msg.ID), zap.Error(err))
		}
	}
}

func (d *OutboxDispatcher) execute(ctx context.Context, msg *entity.OutboxMessage) error {
	switch msg.Kind {
	case entity.OutboxKindEmail:
		var payload entity.EmailPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		return d.notifier.Notify(ctx, payload.Recipient, payload.Template, payload.Data)

	case entity.OutboxKindDocuments:
		return d.generateDocuments(ctx, msg.ApplicationID)

	default:
		return fmt.Errorf("unknown outbox kind %q", msg.Kind)
	}
}

func (d *OutboxDispatcher) generateDocuments(ctx context.Context, applicationID int64) error {
	app, err := d.apps.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("application %d not found", applicationID)
	}

	letterPath, err := d.docs.GenerateAcceptanceLetter(ctx, app)
	if err != nil {
		return fmt.Errorf("acceptance letter: %w", err)
	}
	cardPath, err := d.docs.GenerateUniversityCard(ctx, app)
	if err != nil {
		return fmt.Errorf("university card: %w", err)
	}

	app.AcceptanceLetterPath = letterPath
	app.UniversityCardPath = cardPath
	if err := d.apps.Update(ctx, app); err != nil {
		return fmt.Errorf("store document paths: %w", err)
	}

	d.logger.Info("Acceptance documents generated",
		zap.Int64("application_id", applicationID),
		zap.String("letter", letterPath),
		zap.String("card", cardPath))
	return nil
}

func (d *OutboxDispatcher) retry(ctx context.Context, msg *entity.OutboxMessage, cause error) {
	attempts := msg.Attempts + 1

	if attempts >= d.cfg.MaxAttempts {
		d.logger.Error("Outbox message failed permanently",
			zap.Int64("id", msg.ID),
			zap.String("kind", msg.Kind),
			zap.Int("attempts", attempts),
			zap.Error(cause))
		if err := d.outbox.MarkFailed(ctx, msg.ID, attempts, cause.Error()); err != nil {
			d.logger.Error("Failed to mark outbox message failed", zap.Int64("id", msg.ID), zap.Error(err))
		}
		return
	}

	backoff := d.cfg.RetryBackoff << (attempts - 1)
	next := time.Now().Add(backoff)

	d.logger.Warn("Outbox message failed, will retry",
		zap.Int64("id", msg.ID),
		zap.String("kind", msg.Kind),
		zap.Int("attempts", attempts),
		zap.Time("next_attempt_at", next),
		zap.Error(cause))

	if err := d.outbox.MarkRetry(ctx, msg.ID, attempts, next, cause.Error()); err != nil {
		d.logger.Error("Failed to schedule outbox retry", zap.Int64("id", msg.ID), zap.Error(err))
	}
}
