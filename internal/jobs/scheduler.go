// Package jobs runs the background cron tasks: the midnight claim-flag
// refresh and the hourly premium expiry sweep.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/common"
	"nomercy-bot/internal/config"
	"nomercy-bot/internal/features/accounts"
	"nomercy-bot/internal/features/dailylogin"
)

// Scheduler owns the cron instance and the services the jobs call.
type Scheduler struct {
	cron           *cron.Cron
	loc            *time.Location
	dailyService   *dailylogin.Service
	accountService *accounts.Service
}

// NewScheduler builds a scheduler pinned to the configured timezone so
// "midnight" means midnight for the users, not for the host.
func NewScheduler(cfg *config.Config, dailyService *dailylogin.Service, accountService *accounts.Service) *Scheduler {
	loc := common.LoadLocation(cfg.AppTimezone)
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:           c,
		loc:            loc,
		dailyService:   dailyService,
		accountService: accountService,
	}
}

// Start registers and launches all background jobs.
func (s *Scheduler) Start(ctx context.Context) {
	// Midnight: flip can_claim back on for everyone who claimed yesterday.
	s.cron.AddFunc("0 0 * * *", func() {
		log.Info("[CRON] Refreshing daily claim flags")
		if err := s.dailyService.RefreshClaimFlags(ctx); err != nil {
			log.WithError(err).Error("[CRON] Claim flag refresh failed")
		}
	})

	// Hourly: downgrade accounts whose premium lapsed.
	s.cron.AddFunc("0 * * * *", func() {
		log.Debug("[CRON] Premium expiry sweep")
		if err := s.accountService.ExpireLapsedPremium(ctx, time.Now().In(s.loc)); err != nil {
			log.WithError(err).Error("[CRON] Premium expiry sweep failed")
		}
	})

	s.cron.Start()
	log.WithField("tz", s.loc.String()).Info("Scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}
