// Package filters decides which chats the bot reacts to.
package filters

import (
	"context"

	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/features/accounts"
)

// ChatFilter allows messages from the configured group and from direct
// messages of already-registered accounts; everything else is ignored.
type ChatFilter struct {
	groupJID string
	accounts *accounts.Service
}

// NewChatFilter creates a filter bound to the bot's group.
func NewChatFilter(groupJID string, accountService *accounts.Service) *ChatFilter {
	return &ChatFilter{groupJID: groupJID, accounts: accountService}
}

// CheckAccess reports whether a message may be processed.
func (f *ChatFilter) CheckAccess(ctx context.Context, chatJID string, isGroup bool, senderUser string) bool {
	if isGroup {
		return chatJID == f.groupJID
	}

	// DM: only for users the bot already knows from the group.
	account, err := f.accounts.GetByJID(ctx, senderUser)
	if err != nil {
		log.WithField("sender", senderUser).Debug("DM from unknown user ignored")
		return false
	}
	return !account.IsBanned
}
