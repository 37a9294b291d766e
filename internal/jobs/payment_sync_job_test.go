package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSyncer struct {
	calls   int
	limit   int
	updated int
	err     error
}

func (f *fakeSyncer) SyncPaymentIntents(_ context.Context, limit int) (int, error) {
	f.calls++
	f.limit = limit
	return f.updated, f.err
}

func TestRunOnce(t *testing.T) {
	syncer := &fakeSyncer{updated: 3}
	job := NewPaymentSyncJob(syncer, "@every 5m", zap.NewNop())

	assert.Equal(t, 3, job.RunOnce(context.Background()))
	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, paymentSyncBatch, syncer.limit)

	syncer.err = errors.New("processor down")
	syncer.updated = 1
	assert.Equal(t, 1, job.RunOnce(context.Background()))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	job := NewPaymentSyncJob(&fakeSyncer{}, "every now and then", zap.NewNop())
	require.Error(t, job.Start())
}

func TestStartAndStop(t *testing.T) {
	job := NewPaymentSyncJob(&fakeSyncer{}, "@every 1h", zap.NewNop())
	require.NoError(t, job.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	job.Stop(ctx)
}
