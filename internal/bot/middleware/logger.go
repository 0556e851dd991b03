package middleware

import (
	log "github.com/sirupsen/logrus"
)

// LogMessage logs an incoming message: chat, sender, push name and the
// first 50 characters of the text.
func LogMessage(chatJID, senderJID, pushName, text string) {
	if len(text) > 50 {
		text = text[:50] + "..."
	}

	log.WithFields(log.Fields{
		"chat":   chatJID,
		"sender": senderJID,
		"name":   pushName,
		"text":   text,
	}).Debug("Incoming message")
}
