package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"inkwell/api/internal/repository"
)

// Scheduler runs the background sweeps: expired verification codes are
// deleted so stale OTPs never block a fresh registration, and refresh
// tokens past expiry are purged. Both sweeps only touch rows already
// expired, so they are safe to run alongside live requests.
type Scheduler struct {
	cron   *cron.Cron
	codes  *repository.VerificationRepository
	tokens *repository.RefreshTokenRepository
	log    zerolog.Logger
}

func NewScheduler(codes *repository.VerificationRepository, tokens *repository.RefreshTokenRepository, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:   c,
		codes:  codes,
		tokens: tokens,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 */10 * * * *", s.sweepVerificationCodes); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 * * * *", s.sweepRefreshTokens); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits briefly for in-flight sweeps.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) sweepVerificationCodes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.codes.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("verification code sweep failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("expired verification codes removed")
	}
}

func (s *Scheduler) sweepRefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.tokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("refresh token sweep failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("expired refresh tokens removed")
	}
}
