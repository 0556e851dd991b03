package common

import "strings"

// NormalizeJID reduces a mention or phone argument ("@628xxx", "+628xxx",
// "628xxx@s.whatsapp.net") to the bare user part used as the account key.
func NormalizeJID(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	s = strings.TrimPrefix(s, "+")
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	return s
}
