// handlers.go formats the daily-login bot commands: !dailylogin (claim),
// !dailystatus (7-day preview) and the admin-only !resetdaily.
package dailylogin

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/common"
	"nomercy-bot/internal/config"
	"nomercy-bot/internal/features/accounts"
)

// Handler handles daily-login bot commands.
type Handler struct {
	service *Service
	sender  accounts.Sender
	cfg     *config.Config
}

// NewHandler creates a new daily-login command handler.
func NewHandler(service *Service, sender accounts.Sender, cfg *config.Config) *Handler {
	return &Handler{service: service, sender: sender, cfg: cfg}
}

// HandleDailyLogin claims today's reward for the sender.
func (h *Handler) HandleDailyLogin(ctx context.Context, chatJID, userJID string) {
	result := h.service.Claim(ctx, userJID)
	if !result.Success {
		h.sender.SendText(ctx, chatJID, claimFailureText(result.Reason))
		return
	}

	text := fmt.Sprintf(
		"🎁 *Daily Login — Hari %d*\n\n"+
			"Hadiah: %s\n"+
			"🔥 Streak: %d hari\n"+
			"📅 Besok: Hari %d\n"+
			"Total klaim: %d",
		result.Day, result.RewardDescription,
		result.Streak, result.NextDay, result.TotalClaims,
	)
	h.sender.SendText(ctx, chatJID, text)
}

// HandleDailyStatus shows the streak summary and the 7-day reward preview.
func (h *Handler) HandleDailyStatus(ctx context.Context, chatJID, userJID string) {
	status, err := h.service.GetStatus(ctx, userJID)
	if err != nil {
		log.WithError(err).WithField("jid", userJID).Error("Failed to load daily status")
		h.sender.SendText(ctx, chatJID, "❌ Gagal memuat status daily login.")
		return
	}

	var b strings.Builder
	b.WriteString("📅 *Daily Login*\n\n")
	fmt.Fprintf(&b, "🔥 Streak: %d hari\n", status.CurrentStreak)
	fmt.Fprintf(&b, "Total klaim: %d\n", status.TotalClaims)
	if status.ClaimedToday {
		b.WriteString("✅ Sudah klaim hari ini, datang lagi besok!\n")
	} else if status.StreakReset && status.CurrentStreak > 0 {
		b.WriteString("⚠️ Streak kamu putus, klaim berikutnya mulai dari Hari 1.\n")
	} else {
		b.WriteString("🎁 Hadiah hari ini belum diklaim — ketik !dailylogin\n")
	}

	b.WriteString("\n")
	for _, reward := range status.Rewards {
		marker := "▫️"
		if reward.Day == status.NextDay {
			marker = "👉"
		} else if doneInCurrentPass(status, reward.Day) {
			marker = "✅"
		}
		fmt.Fprintf(&b, "%s Hari %d: %s\n", marker, reward.Day, DescribeReward(reward))
	}

	h.sender.SendText(ctx, chatJID, b.String())
}

// doneInCurrentPass reports whether a cycle day was already claimed in the
// user's current run through the 7-day table.
func doneInCurrentPass(status *Status, day int) bool {
	if status.StreakReset || status.CurrentStreak == 0 {
		return false
	}
	return day < status.NextDay
}

// HandleResetDaily resets another user's streak state. Admin only.
func (h *Handler) HandleResetDaily(ctx context.Context, chatJID, userJID string, args []string) {
	if !h.cfg.IsAdmin(userJID) {
		h.sender.SendText(ctx, chatJID, "🚫 Perintah ini khusus admin.")
		return
	}
	if len(args) == 0 {
		h.sender.SendText(ctx, chatJID, "Format: !resetdaily <nomor>")
		return
	}

	target := common.NormalizeJID(args[0])
	result := h.service.ResetUser(ctx, target)
	if !result.Success {
		if result.Reason == ReasonUserNotFound {
			h.sender.SendText(ctx, chatJID,
				fmt.Sprintf("❌ %s belum pernah klaim daily login.", target))
		} else {
			h.sender.SendText(ctx, chatJID, "❌ Reset gagal, coba lagi nanti.")
		}
		return
	}

	h.sender.SendText(ctx, chatJID,
		fmt.Sprintf("✅ Daily login %s sudah direset ke Hari 1.", target))
}

// claimFailureText maps engine reason codes to user-facing messages.
func claimFailureText(reason string) string {
	switch reason {
	case ReasonAlreadyClaimed:
		return "⏰ Kamu sudah klaim hari ini. Datang lagi besok ya!"
	case ReasonNoReward:
		return "❌ Hadiah untuk hari ini belum dikonfigurasi. Hubungi admin."
	case ReasonUserNotFound:
		return "❌ Akun kamu belum terdaftar. Kirim pesan dulu di grup."
	default:
		return "❌ Terjadi kesalahan, coba lagi nanti."
	}
}
