package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/config"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/leadgen"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/observer"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
)

// LeadTaskData holds the necessary data for a lead-creation trigger.
type LeadTaskData struct {
	Ctx       context.Context // Context derived for the task, NOT the original request context
	TenantID  string
	Jid       string
	Phone     string
	PushName  string
	AvatarURL string
}

// ILeadWorker defines the interface for the lead trigger worker pool.
type ILeadWorker interface {
	SubmitTask(taskData LeadTaskData) error
	Stop()
}

// LeadWorker manages the worker pool that fires best-effort lead-creation
// calls after successful contact upserts. Failures are logged and dropped:
// they never affect the webhook response and are never retried.
type LeadWorker struct {
	pool       *ants.PoolWithFunc
	client     LeadCreator
	cfg        config.LeadWorkerPoolConfig
	timeout    time.Duration
	baseLogger *zap.Logger
}

// Ensure LeadWorker implements ILeadWorker
var _ ILeadWorker = (*LeadWorker)(nil)

// NewLeadWorker creates and initializes a new lead trigger worker pool.
func NewLeadWorker(
	cfg config.LeadWorkerPoolConfig,
	leadCfg config.LeadConfig,
	client LeadCreator,
	baseLogger *zap.Logger,
) (*LeadWorker, error) {
	timeout := leadCfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	worker := &LeadWorker{
		client:     client,
		cfg:        cfg,
		timeout:    timeout,
		baseLogger: baseLogger.Named("lead_worker"),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		taskData, ok := i.(LeadTaskData)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processLeadTask(taskData)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(true), // Drop rather than block the webhook path
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in lead worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Lead worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
	)
	return worker, nil
}

// SubmitTask submits a new lead trigger to the worker pool.
func (w *LeadWorker) SubmitTask(taskData LeadTaskData) error {
	observer.IncLeadTriggersSubmitted(taskData.TenantID)
	observer.SetLeadQueueLength(w.pool.Waiting()) // Approximate queue length

	err := w.pool.Invoke(taskData)
	if err != nil {
		w.baseLogger.Warn("Failed to submit lead task to pool",
			zap.String("jid", taskData.Jid),
			zap.String("tenant_id", taskData.TenantID),
			zap.Error(err),
		)
		observer.IncLeadTriggersProcessed(taskData.TenantID, "submit_error")
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("lead pool overload: %w", err)
		}
		return fmt.Errorf("failed to invoke lead task: %w", err)
	}

	return nil
}

// processLeadTask contains the actual logic executed by a worker goroutine.
func (w *LeadWorker) processLeadTask(taskData LeadTaskData) {
	log := logger.FromContextOr(taskData.Ctx, w.baseLogger).With(
		zap.String("task_jid", taskData.Jid),
		zap.String("task_tenant_id", taskData.TenantID),
	)

	start := time.Now()
	status := "success"

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	resp, err := w.client.CreateLead(ctx, &leadgen.CreateLeadRequest{
		TenantID:         taskData.TenantID,
		SenderIdentifier: taskData.Jid,
		Phone:            taskData.Phone,
		DisplayName:      taskData.PushName,
		ProfilePicURL:    taskData.AvatarURL,
	})
	if err != nil {
		// Best effort: log and drop.
		log.Warn("Lead creation call failed", zap.Error(err))
		status = "failure"
	} else if resp.Created {
		log.Info("Lead created", zap.String("lead_id", resp.LeadID))
	} else {
		log.Debug("Lead not created", zap.String("reason", resp.Reason))
		status = "skipped"
	}

	duration := time.Since(start)
	observer.ObserveLeadTriggerDuration(taskData.TenantID, duration)
	observer.IncLeadTriggersProcessed(taskData.TenantID, status)
}

// Stop gracefully shuts down the worker pool.
func (w *LeadWorker) Stop() {
	if w.pool != nil {
		w.baseLogger.Info("Releasing lead worker pool")
		start := time.Now()
		w.pool.Release()
		w.baseLogger.Info("Lead worker pool released", zap.Duration("duration", time.Since(start)))
	}
}
