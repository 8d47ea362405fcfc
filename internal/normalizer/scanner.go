package normalizer

import (
	"strings"
)

// scanPriorityKeys are tried first at every object before the remaining
// values are walked. Some providers bury the sender arbitrarily deep under
// one of these names.
var scanPriorityKeys = []string{
	"from", "remoteJid", "remote_jid", "chatId", "chat_id", "jid",
	"wa_id", "waId", "phone", "number", "sender", "participant", "author",
}

var jidSuffixes = []string{DefaultJidSuffix, "@c.us", GroupJidSuffix}

// ScanForSender recursively walks a decoded payload looking for any string
// that plausibly identifies the sender: either a value carrying a known chat
// identifier suffix, or one whose digits form a plausible phone number.
// maxDepth bounds the walk since payloads are untrusted. Returns "" when the
// tree is exhausted.
func ScanForSender(value interface{}, maxDepth int) string {
	if maxDepth <= 0 {
		return ""
	}
	switch v := value.(type) {
	case map[string]interface{}:
		for _, key := range scanPriorityKeys {
			raw, ok := v[key]
			if !ok {
				continue
			}
			if s, ok := raw.(string); ok {
				if looksLikeSender(s) {
					return s
				}
				continue
			}
			// A sender can hide inside an object or array under a
			// priority-named key.
			if hit := ScanForSender(raw, maxDepth-1); hit != "" {
				return hit
			}
		}
		for key, raw := range v {
			if isPriorityKey(key) {
				continue
			}
			if hit := ScanForSender(raw, maxDepth-1); hit != "" {
				return hit
			}
		}
	case []interface{}:
		for _, item := range v {
			if hit := ScanForSender(item, maxDepth-1); hit != "" {
				return hit
			}
		}
	case string:
		if looksLikeSender(v) {
			return v
		}
	}
	return ""
}

func isPriorityKey(key string) bool {
	for _, p := range scanPriorityKeys {
		if key == p {
			return true
		}
	}
	return false
}

// looksLikeSender accepts a string carrying a chat identifier suffix, or one
// whose digit content has a plausible phone length.
func looksLikeSender(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, suffix := range jidSuffixes {
		if strings.Contains(s, suffix) {
			return true
		}
	}
	digits := nonDigits.ReplaceAllString(s, "")
	return len(digits) >= 10 && len(digits) <= 15
}
