package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	paymentSyncBatch   = 100
	paymentSyncTimeout = 2 * time.Minute
)

// PaymentSyncer mirrors processor state onto local payment intents
type PaymentSyncer interface {
	SyncPaymentIntents(ctx context.Context, limit int) (int, error)
}

// PaymentSyncJob periodically reconciles unsettled payment intents
type PaymentSyncJob struct {
	syncer   PaymentSyncer
	schedule string
	cron     *cron.Cron
	log      *zap.Logger
}

// NewPaymentSyncJob creates a new payment reconciliation job
func NewPaymentSyncJob(syncer PaymentSyncer, schedule string, log *zap.Logger) *PaymentSyncJob {
	return &PaymentSyncJob{
		syncer:   syncer,
		schedule: schedule,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log: log,
	}
}

// Start schedules the job and returns immediately
func (j *PaymentSyncJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), paymentSyncTimeout)
		defer cancel()
		j.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("invalid payment sync schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.log.Info("[PaymentSync] Started payment reconciliation job", zap.String("schedule", j.schedule))
	return nil
}

// Stop unschedules the job and waits for a running sync to finish
func (j *PaymentSyncJob) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
		j.log.Info("[PaymentSync] Stopped payment reconciliation job")
	case <-ctx.Done():
		j.log.Warn("[PaymentSync] Timed out waiting for running sync")
	}
}

// RunOnce reconciles one batch of intents
func (j *PaymentSyncJob) RunOnce(ctx context.Context) int {
	updated, err := j.syncer.SyncPaymentIntents(ctx, paymentSyncBatch)
	if err != nil {
		j.log.Error("[PaymentSync] Reconciliation failed", zap.Int("updated", updated), zap.Error(err))
		return updated
	}
	if updated > 0 {
		j.log.Info("[PaymentSync] Reconciled payment intents", zap.Int("updated", updated))
	}
	return updated
}
