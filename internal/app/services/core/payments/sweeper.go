package payments

import (
	"context"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/app/services/shared/metrics"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	sweeperLockTTL  = 2 * time.Minute
	sweeperFallback = "@every 5m"
	sweptMessage    = "no terminal status was recorded before the workflow stopped"
)

type liveChecker interface {
	HasLiveWorkflow(intentID string) bool
}

// Sweeper marks journal entries that never reached a terminal state as
// timed out, e.g. when the process died mid-poll. It never writes ledger
// rows. Only one instance sweeps at a time.
type Sweeper struct {
	log     *zap.Logger
	cfg     config.AppSweeper
	locker  contracts.LockerService
	journal contracts.PaymentJournalRepository
	live    liveChecker
	clock   clockwork.Clock
	cron    *cron.Cron
	runCtx  context.Context
	cancel  context.CancelFunc
}

func NewSweeper(log *zap.Logger, cfg config.AppSweeper, locker contracts.LockerService, journal contracts.PaymentJournalRepository, live liveChecker, clock clockwork.Clock) *Sweeper {
	return &Sweeper{
		log:     log,
		cfg:     cfg,
		locker:  locker,
		journal: journal,
		live:    live,
		clock:   clock,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.runCtx, s.cancel = context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.CronSpec, func() { s.runOnce(s.runCtx) }); err != nil {
		s.log.Warn("payments.sweeper: invalid cron spec, falling back",
			zap.String("cron_spec", s.cfg.CronSpec),
			zap.String("fallback", sweeperFallback),
			zap.Error(err),
		)
		c = cron.New()
		_, _ = c.AddFunc(sweeperFallback, func() { s.runOnce(s.runCtx) })
	}
	c.Start()
	s.cron = c
}

// Stop waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// runOnce returns the number of entries it marked as timed out.
func (s *Sweeper) runOnce(ctx context.Context) int {
	acquired, token, err := s.locker.TryLock(ctx, constvars.PaymentSweeperLockKey, sweeperLockTTL)
	if err != nil {
		s.log.Warn("payments.sweeper: leader lock attempt failed", zap.Error(err))
		return 0
	}
	if !acquired {
		s.log.Debug("payments.sweeper: another instance is sweeping")
		return 0
	}
	defer s.locker.Unlock(context.WithoutCancel(ctx), constvars.PaymentSweeperLockKey, token)

	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()
	go s.refreshLock(refreshCtx, token)

	olderThan := s.clock.Now().Add(-s.cfg.StaleAge)
	stale, err := s.journal.FindStale(ctx, olderThan)
	if err != nil {
		s.log.Warn("payments.sweeper: stale journal lookup failed", zap.Error(err))
		return 0
	}

	swept := 0
	for i := range stale {
		entry := stale[i]
		if s.live.HasLiveWorkflow(entry.IntentID) {
			continue
		}
		from := entry.State
		now := s.clock.Now()
		entry.State = models.WorkflowStateTimedOut
		entry.ErrorKind = exceptions.KindName(exceptions.KindConfirmationTimeout)
		entry.ErrorMessage = sweptMessage
		entry.SettledAt = &now
		entry.SetUpdatedAt(now)

		updated, err := s.journal.SettleIfPending(ctx, &entry)
		if err != nil {
			s.log.Warn("payments.sweeper: failed to mark intent timed out",
				zap.String(constvars.LoggingIntentIDKey, entry.IntentID),
				zap.Error(err),
			)
			continue
		}
		if !updated {
			s.log.Debug("payments.sweeper: intent settled before it could be swept",
				zap.String(constvars.LoggingIntentIDKey, entry.IntentID),
			)
			continue
		}
		s.log.Warn("payments.sweeper: abandoned payment intent marked timed out, check the gateway before retrying",
			zap.String(constvars.LoggingIntentIDKey, entry.IntentID),
			zap.String(constvars.LoggingWorkflowFromStateKey, string(from)),
			zap.String(constvars.LoggingPurposeKey, entry.Purpose),
			zap.String(constvars.LoggingSubjectIDKey, entry.SubjectID),
			zap.String(constvars.LoggingAmountKey, entry.Amount),
		)
		swept++
	}

	if swept > 0 {
		metrics.AddSweptIntents(swept)
		s.log.Info("payments.sweeper: sweep finished", zap.Int(constvars.LoggingSweptCountKey, swept))
	}
	return swept
}

func (s *Sweeper) refreshLock(ctx context.Context, token string) {
	ticker := s.clock.NewTicker(sweeperLockTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.locker.Refresh(ctx, constvars.PaymentSweeperLockKey, token, sweeperLockTTL); err != nil {
				s.log.Warn("payments.sweeper: failed to refresh leader lock", zap.Error(err))
			}
		}
	}
}
