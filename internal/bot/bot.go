// Package bot contains the WhatsApp side of the service: connecting the
// whatsmeow client, filtering and routing incoming messages and sending
// replies. The device session is persisted in the same PostgreSQL
// database as the rest of the bot state.
package bot

import (
	"context"
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for the whatsmeow session store
	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/bot/filters"
	"nomercy-bot/internal/bot/middleware"
	"nomercy-bot/internal/config"
	"nomercy-bot/internal/features/accounts"
	"nomercy-bot/internal/features/dailylogin"
)

// Bot wires the whatsmeow client to the feature handlers.
type Bot struct {
	client *whatsmeow.Client
	cfg    *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	accountService *accounts.Service
	accountHandler *accounts.Handler
	dailyHandler   *dailylogin.Handler

	parser *CommandParser

	// caps how many messages are processed in parallel
	inflight chan struct{}
}

// NewClient opens the postgres-backed device store and builds the
// whatsmeow client. Pairing state is checked in Start.
func NewClient(ctx context.Context, cfg *config.Config) (*whatsmeow.Client, error) {
	store.DeviceProps.Os = proto.String(cfg.WADeviceName)

	dbLog := waLog.Stdout("WADB", "WARN", false)
	container, err := sqlstore.New(ctx, "pgx", cfg.DatabaseDSN(), dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open device store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}

	clientLog := waLog.Stdout("WA", "INFO", false)
	return whatsmeow.NewClient(device, clientLog), nil
}

// New creates a bot. The feature handlers are attached separately with
// SetHandlers because they need the bot itself as their Sender.
func New(
	client *whatsmeow.Client,
	cfg *config.Config,
	accountService *accounts.Service,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		client:         client,
		cfg:            cfg,
		chatFilter:     chatFilter,
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		accountService: accountService,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// SetHandlers wires the feature handlers in after construction.
func (b *Bot) SetHandlers(accountHandler *accounts.Handler, dailyHandler *dailylogin.Handler) {
	b.accountHandler = accountHandler
	b.dailyHandler = dailyHandler
}

// Start connects to WhatsApp and blocks until ctx is cancelled. On a
// fresh device the pairing QR code is printed to the log.
func (b *Bot) Start(ctx context.Context) error {
	b.client.AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			b.inflight <- struct{}{}
			go func(msg *events.Message) {
				defer func() { <-b.inflight }()
				b.handleMessage(ctx, msg)
			}(v)
		case *events.Connected:
			log.Info("WhatsApp connection established")
		case *events.LoggedOut:
			log.Warn("Device logged out, re-pairing required")
		}
	})

	if b.client.Store.ID == nil {
		// Fresh device: show the QR code until the phone scans it.
		qrChan, err := b.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("failed to open QR channel: %w", err)
		}
		if err := b.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					log.WithField("code", evt.Code).Info("Scan this QR code in WhatsApp (Linked devices)")
				} else {
					log.WithField("event", evt.Event).Info("Pairing event")
				}
			}
		}()
	} else {
		if err := b.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
	}

	log.WithField("max_inflight", cap(b.inflight)).Info("Bot is running")

	<-ctx.Done()
	log.Info("Bot stopping (ctx done)...")
	b.rateLimiter.Close()
	b.client.Disconnect()
	return nil
}

// handleMessage processes one incoming message.
func (b *Bot) handleMessage(ctx context.Context, msg *events.Message) {
	defer middleware.RecoverFromPanic()

	if msg.Info.IsFromMe {
		return
	}

	text := extractText(msg.Message)
	if text == "" {
		return
	}

	chat := msg.Info.Chat
	sender := msg.Info.Sender
	isGroup := chat.Server == types.GroupServer

	middleware.LogMessage(chat.String(), sender.String(), msg.Info.PushName, text)

	if !b.chatFilter.CheckAccess(ctx, chat.String(), isGroup, sender.User) {
		return
	}

	if !b.rateLimiter.Allow(sender.User) {
		log.WithField("sender", sender.User).Debug("rate limited")
		return
	}

	// Lazy registration: the account row must exist before any claim.
	if err := b.accountService.EnsureAccount(ctx, sender.User, msg.Info.PushName); err != nil {
		log.WithError(err).WithField("jid", sender.User).Warn("EnsureAccount failed")
	}

	cmd, args, isCommand := b.parser.ParseCommand(text)
	if !isCommand {
		return
	}

	log.WithFields(log.Fields{"cmd": cmd, "args": args}).Debug("routing command")
	b.routeCommand(ctx, chat.String(), sender.User, cmd, args)
}

// routeCommand dispatches a parsed command to its handler.
func (b *Bot) routeCommand(ctx context.Context, chatJID, userJID, cmd string, args []string) {
	switch cmd {
	case "help", "menu":
		b.SendText(ctx, chatJID,
			"🤖 *NoMercy*\n\n"+
				"!dailylogin — klaim hadiah harian\n"+
				"!dailystatus — lihat streak & hadiah\n"+
				"!profile — profil kamu\n"+
				"!riwayat — riwayat transaksi\n"+
				"!resetdaily <nomor> — reset (admin)\n"+
				"!give <nomor> <jumlah> [chips] — tambah saldo (admin)")

	case "dailylogin", "daily", "claim":
		if b.cfg.FeatureDailyLoginEnabled {
			b.dailyHandler.HandleDailyLogin(ctx, chatJID, userJID)
		} else {
			b.SendText(ctx, chatJID, "🎁 Daily login sedang dinonaktifkan")
		}

	case "dailystatus":
		if b.cfg.FeatureDailyLoginEnabled {
			b.dailyHandler.HandleDailyStatus(ctx, chatJID, userJID)
		}

	case "resetdaily":
		b.dailyHandler.HandleResetDaily(ctx, chatJID, userJID, args)

	case "profile", "me":
		b.accountHandler.HandleProfile(ctx, chatJID, userJID)

	case "transactions", "riwayat":
		b.accountHandler.HandleTransactions(ctx, chatJID, userJID)

	case "give":
		b.accountHandler.HandleGive(ctx, chatJID, userJID, args)
	}
}

// SendText delivers a plain text message to a chat. Implements the
// Sender interface the feature handlers depend on.
func (b *Bot) SendText(ctx context.Context, chatJID, text string) {
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		log.WithError(err).WithField("chat", chatJID).Error("Invalid chat JID")
		return
	}

	_, err = b.client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		log.WithError(err).WithField("chat", chatJID).Error("Failed to send message")
	}
}

// extractText pulls the text body out of the supported message types.
func extractText(msg *waProto.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Conversation != nil {
		return msg.GetConversation()
	}
	if msg.ExtendedTextMessage != nil {
		return msg.ExtendedTextMessage.GetText()
	}
	return ""
}

// CommandParser splits messages into command and arguments. Commands are
// prefixed with !, . or /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser creates the parser.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand splits text into a lowercase command and its arguments.
// Returns false when the text carries no command prefix.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
