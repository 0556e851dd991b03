// handlers.go formats account information for chat replies (!profile).
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/common"
	"nomercy-bot/internal/config"
)

// Sender delivers a text message to a chat. Implemented by the bot.
type Sender interface {
	SendText(ctx context.Context, chatJID, text string)
}

// Handler handles account-related bot commands.
type Handler struct {
	service *Service
	sender  Sender
	cfg     *config.Config
}

// NewHandler creates a new account command handler.
func NewHandler(service *Service, sender Sender, cfg *config.Config) *Handler {
	return &Handler{service: service, sender: sender, cfg: cfg}
}

// HandleProfile replies with the user's balances and premium status.
func (h *Handler) HandleProfile(ctx context.Context, chatJID, userJID string) {
	account, err := h.service.GetByJID(ctx, userJID)
	if err != nil {
		log.WithError(err).WithField("jid", userJID).Error("Failed to load profile")
		h.sender.SendText(ctx, chatJID, "❌ Gagal memuat profil kamu, coba lagi nanti.")
		return
	}

	status := "Basic"
	if account.Status == StatusPremium {
		status = "Premium"
		if account.PremiumUntil != nil {
			status = fmt.Sprintf("Premium (sampai %s)", common.FormatDate(*account.PremiumUntil))
		}
	}

	text := fmt.Sprintf(
		"👤 *Profil Kamu*\n\n"+
			"Nama: %s\n"+
			"Status: %s\n\n"+
			"💰 Balance: %d\n"+
			"🎰 Chips: %d",
		account.Name, status, account.Balance, account.Chips,
	)
	h.sender.SendText(ctx, chatJID, text)
}

// transactionHistoryLimit caps the ledger entries shown per reply.
const transactionHistoryLimit = 10

// HandleTransactions replies with the user's latest ledger entries.
func (h *Handler) HandleTransactions(ctx context.Context, chatJID, userJID string) {
	entries, err := h.service.GetTransactions(ctx, userJID, transactionHistoryLimit)
	if err != nil {
		log.WithError(err).WithField("jid", userJID).Error("Failed to load transactions")
		h.sender.SendText(ctx, chatJID, "❌ Gagal memuat riwayat transaksi.")
		return
	}
	if len(entries) == 0 {
		h.sender.SendText(ctx, chatJID, "📒 Belum ada transaksi.")
		return
	}

	var b strings.Builder
	b.WriteString("📒 *Riwayat Transaksi*\n\n")
	for _, t := range entries {
		fmt.Fprintf(&b, "%s  +%d %s (%s)\n",
			common.FormatDate(t.CreatedAt), t.Amount, t.Currency, t.Description)
	}
	h.sender.SendText(ctx, chatJID, b.String())
}

// HandleGive credits balance or chips to another user. Admin only.
// Format: !give <nomor> <jumlah> [chips]
func (h *Handler) HandleGive(ctx context.Context, chatJID, userJID string, args []string) {
	if !h.cfg.IsAdmin(userJID) {
		h.sender.SendText(ctx, chatJID, "🚫 Perintah ini khusus admin.")
		return
	}
	if len(args) < 2 {
		h.sender.SendText(ctx, chatJID, "Format: !give <nomor> <jumlah> [chips]")
		return
	}

	target := common.NormalizeJID(args[0])
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		h.sender.SendText(ctx, chatJID, "❌ Jumlah harus angka positif.")
		return
	}

	currency := CurrencyBalance
	if len(args) > 2 && strings.EqualFold(args[2], CurrencyChips) {
		currency = CurrencyChips
	}

	if err := h.service.Grant(ctx, target, currency, amount); err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			h.sender.SendText(ctx, chatJID, fmt.Sprintf("❌ Akun %s tidak ditemukan.", target))
		} else {
			log.WithError(err).WithField("jid", target).Error("Admin grant failed")
			h.sender.SendText(ctx, chatJID, "❌ Gagal menambahkan saldo, coba lagi nanti.")
		}
		return
	}

	h.sender.SendText(ctx, chatJID,
		fmt.Sprintf("✅ %d %s ditambahkan ke %s.", amount, currency, target))
}
