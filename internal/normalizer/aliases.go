package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Alias tables for the canonical message fields. The provider ecosystem is
// inconsistent about naming, so new quirks are added here as data instead of
// new code paths. Entries may be dotted paths ("key.id") which descend
// through nested objects.
var (
	senderAliases = []string{
		"from", "phone", "number", "sender", "remoteJid", "remote_jid",
		"chatId", "chat_id", "jid", "wa_id", "waId",
		"key.remoteJid", "participant", "author",
	}

	nameAliases = []string{
		"pushName", "push_name", "notifyName", "notify_name",
		"senderName", "sender_name", "name", "verifiedName",
		"profile.name",
	}

	bodyAliases = []string{
		"body", "text", "text.body", "caption", "conversation",
		"content", "extendedTextMessage.text",
	}

	messageIDAliases = []string{
		"id", "message_id", "messageId", "msgId", "wamid", "key.id",
	}

	timestampAliases = []string{
		"timestamp", "t", "messageTimestamp", "message_timestamp",
		"time", "date", "sent_at",
	}

	typeAliases = []string{
		"type", "messageType", "message_type",
	}

	groupFlagAliases = []string{
		"isGroup", "is_group", "group",
	}

	groupNameAliases = []string{
		"groupName", "group_name", "subject", "chatName", "chat_name",
	}

	avatarAliases = []string{
		"avatarUrl", "avatar_url", "avatar", "profilePicUrl",
		"profile_pic_url", "senderProfilePicUrl", "picture",
		"profilePicture", "profile_picture",
	}
)

// lookupString resolves a possibly-dotted alias path inside a decoded JSON
// object and stringifies scalar hits. Returns "" when the path is absent or
// resolves to a non-scalar.
func lookupString(container map[string]interface{}, path string) string {
	if container == nil {
		return ""
	}
	cur := interface{}(container)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur, ok = obj[part]
		if !ok {
			return ""
		}
	}
	return stringify(cur)
}

// stringify renders a scalar JSON value as a string. Payloads are decoded
// with json.Number so numeric ids survive without float mangling.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// lookupBool resolves an alias path as a boolean, accepting native booleans
// and the usual string renderings.
func lookupBool(container map[string]interface{}, path string) (bool, bool) {
	if container == nil {
		return false, false
	}
	cur := interface{}(container)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return false, false
		}
		cur, ok = obj[part]
		if !ok {
			return false, false
		}
	}
	switch val := cur.(type) {
	case bool:
		return val, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	}
	return false, false
}

// firstAlias scans the given containers in priority order and, within each,
// the alias list in order. First non-empty hit wins.
func firstAlias(containers []map[string]interface{}, aliases []string) string {
	for _, c := range containers {
		if c == nil {
			continue
		}
		for _, alias := range aliases {
			if v := lookupString(c, alias); v != "" {
				return v
			}
		}
	}
	return ""
}
