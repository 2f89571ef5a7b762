package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/opsdeck/support-portal/internal/config"
	"github.com/opsdeck/support-portal/internal/repository"
)

// Sweeper runs the periodic maintenance jobs: orphaned pending
// attachments are collected after their grace period, the used-hours
// counters get a reconciling recompute, and expired magic-link tokens
// are purged.
type Sweeper struct {
	attachments repository.AttachmentRepository
	allocations repository.AllocationRepository
	magicLinks  repository.MagicLinkRepository
	storageCfg  config.StorageConfig
	workerCfg   config.WorkerConfig
	logger      *zap.Logger
}

// NewSweeper constructs the sweeper.
func NewSweeper(attachments repository.AttachmentRepository, allocations repository.AllocationRepository, magicLinks repository.MagicLinkRepository, storageCfg config.StorageConfig, workerCfg config.WorkerConfig, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		attachments: attachments,
		allocations: allocations,
		magicLinks:  magicLinks,
		storageCfg:  storageCfg,
		workerCfg:   workerCfg,
		logger:      logger,
	}
}

// Run blocks until the context is cancelled, firing each job on its own
// ticker. Call it from a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	attachmentTicker := time.NewTicker(time.Duration(s.storageCfg.SweepIntervalMinutes) * time.Minute)
	reconcileTicker := time.NewTicker(time.Duration(s.workerCfg.ReconcileIntervalMinutes) * time.Minute)
	defer attachmentTicker.Stop()
	defer reconcileTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-attachmentTicker.C:
			s.sweepAttachments(ctx)
			s.sweepMagicLinks(ctx)
		case <-reconcileTicker.C:
			s.reconcileAllocations(ctx)
		}
	}
}

func (s *Sweeper) sweepAttachments(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(s.storageCfg.PendingGraceMinutes) * time.Minute)
	removed, err := s.attachments.DeletePendingBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("attachment sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("collected orphaned attachments", zap.Int64("removed", removed))
	}
}

func (s *Sweeper) sweepMagicLinks(ctx context.Context) {
	removed, err := s.magicLinks.DeleteExpiredBefore(ctx, time.Now())
	if err != nil {
		s.logger.Error("magic link sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("purged expired magic links", zap.Int64("removed", removed))
	}
}

// reconcileAllocations is a safety net behind the transactional
// recompute; it re-derives every used-hours counter from the time-log
// rows.
func (s *Sweeper) reconcileAllocations(ctx context.Context) {
	updated, err := s.allocations.RecomputeUsedAll(ctx)
	if err != nil {
		s.logger.Error("allocation reconcile failed", zap.Error(err))
		return
	}
	s.logger.Info("reconciled allocation usage", zap.Int64("updated", updated))
}
