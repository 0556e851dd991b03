// service.go contains the account business logic: lazy registration,
// profile reads and the premium expiry sweep.
package accounts

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/config"
)

// Service manages bot user accounts.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

// NewService creates a new account service.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// EnsureAccount guarantees a row exists for the JID. Called on the first
// message a user sends; existing accounts only get their name refreshed.
func (s *Service) EnsureAccount(ctx context.Context, jid, name string) error {
	exists, err := s.repo.Exists(ctx, jid)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = s.repo.Create(ctx, jid, name,
		s.cfg.AccountStartingBalance, s.cfg.AccountStartingChips, s.cfg.AccountCommandLimit)
	if err != nil {
		return fmt.Errorf("failed to register account: %w", err)
	}

	log.WithFields(log.Fields{"jid": jid, "name": name}).Info("New account registered")
	return nil
}

// GetByJID returns the account for the JID.
func (s *Service) GetByJID(ctx context.Context, jid string) (*Account, error) {
	return s.repo.GetByJID(ctx, jid)
}

// GetTransactions returns the user's latest ledger entries.
func (s *Service) GetTransactions(ctx context.Context, jid string, limit int) ([]*Transaction, error) {
	return s.repo.GetTransactions(ctx, jid, limit)
}

// Grant credits balance or chips to an account (admin operation). The
// credit and its ledger entry commit together.
func (s *Service) Grant(ctx context.Context, jid, currency string, amount int64) error {
	const description = "Admin grant"
	var err error
	if currency == CurrencyChips {
		err = s.repo.AddChips(ctx, jid, amount, TxTypeAdminGive, description)
	} else {
		err = s.repo.AddBalance(ctx, jid, amount, TxTypeAdminGive, description)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"jid": jid, "currency": currency, "amount": amount}).Info("Admin grant applied")
	return nil
}

// ExpireLapsedPremium downgrades accounts whose premium has run out.
// Invoked hourly by the scheduler.
func (s *Service) ExpireLapsedPremium(ctx context.Context, now time.Time) error {
	n, err := s.repo.ExpireLapsedPremium(ctx, now, s.cfg.AccountCommandLimit)
	if err != nil {
		return err
	}
	if n > 0 {
		log.WithField("count", n).Info("Premium subscriptions expired")
	}
	return nil
}
