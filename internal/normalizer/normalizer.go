package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/utils"
)

// DefaultJidSuffix is appended when a bare phone number has to be promoted to
// a canonical chat identifier.
const DefaultJidSuffix = "@s.whatsapp.net"

// GroupJidSuffix marks group chat identifiers.
const GroupJidSuffix = "@g.us"

var nonDigits = regexp.MustCompile(`\D`)

// NormalizedMessage is the canonical view of one inbound webhook payload.
// Fields are best-effort: empty strings mean "not found in any known shape".
type NormalizedMessage struct {
	Jid         string
	Phone       string
	PushName    string
	Body        string
	MessageID   string
	MessageType string
	Timestamp   time.Time
	IsGroup     bool
	GroupName   string
	AvatarURL   string
}

// Containers holds the candidate root/sub-objects resolved from a payload.
// The attribution extractor reuses them so the shape is only discovered once.
type Containers struct {
	Root         map[string]interface{}
	Data         map[string]interface{} // nested envelope, commonly under "data"
	Message      map[string]interface{}
	Chat         map[string]interface{}
	CloudValue   map[string]interface{} // entry[0].changes[0].value
	CloudMessage map[string]interface{} // CloudValue.messages[0]
	CloudContact map[string]interface{} // CloudValue.contacts[0]
}

// ordered returns the container search order for field extraction.
func (c *Containers) ordered() []map[string]interface{} {
	return []map[string]interface{}{
		c.Root, c.Data, c.Message, c.Chat,
		c.CloudValue, c.CloudMessage, c.CloudContact,
	}
}

// ResolveContainers discovers the candidate sub-objects of a decoded payload.
func ResolveContainers(root map[string]interface{}) *Containers {
	c := &Containers{Root: root}
	if root == nil {
		return c
	}

	c.Data = childObject(root, "data", "payload")

	// The message/chat envelopes can sit at the top level or inside the
	// data envelope.
	for _, base := range []map[string]interface{}{root, c.Data} {
		if c.Message == nil {
			c.Message = childObject(base, "message", "msg")
		}
		if c.Chat == nil {
			c.Chat = childObject(base, "chat", "contact", "conversation")
		}
	}

	// Standards-shaped delivery report: entry[0].changes[0].value with
	// positional messages/contacts arrays.
	if entry := childArrayObject(root, "entry"); entry != nil {
		if change := childArrayObject(entry, "changes"); change != nil {
			c.CloudValue = childObject(change, "value")
			c.CloudMessage = childArrayObject(c.CloudValue, "messages")
			c.CloudContact = childArrayObject(c.CloudValue, "contacts")
		}
	}
	return c
}

func childObject(base map[string]interface{}, keys ...string) map[string]interface{} {
	if base == nil {
		return nil
	}
	for _, key := range keys {
		if obj, ok := base[key].(map[string]interface{}); ok {
			return obj
		}
	}
	return nil
}

// childArrayObject returns the first element of an array-valued key when that
// element is an object.
func childArrayObject(base map[string]interface{}, key string) map[string]interface{} {
	if base == nil {
		return nil
	}
	arr, ok := base[key].([]interface{})
	if !ok || len(arr) == 0 {
		return nil
	}
	obj, _ := arr[0].(map[string]interface{})
	return obj
}

// Normalize extracts the canonical message fields from a decoded payload.
// It never fails: an unrecognizable shape yields a NormalizedMessage with an
// empty Jid, which the caller treats as "no sender found".
func Normalize(root map[string]interface{}) (*NormalizedMessage, *Containers) {
	c := ResolveContainers(root)
	containers := c.ordered()

	msg := &NormalizedMessage{
		PushName:  firstAlias(containers, nameAliases),
		Body:      firstAlias(containers, bodyAliases),
		MessageID: firstAlias(containers, messageIDAliases),
		GroupName: firstAlias(containers, groupNameAliases),
		AvatarURL: firstAlias(containers, avatarAliases),
	}

	sender := firstAlias(containers, senderAliases)
	msg.Jid, msg.Phone = DeriveJid(sender)

	msg.Timestamp = NormalizeTimestamp(firstAlias(containers, timestampAliases))

	if flag, ok := firstBoolAlias(containers, groupFlagAliases); ok {
		msg.IsGroup = flag
	} else {
		msg.IsGroup = strings.Contains(msg.Jid, GroupJidSuffix)
	}

	msg.MessageType = classifyType(firstAlias(containers, typeAliases), msg.Body)

	if msg.MessageID == "" && msg.Jid != "" {
		// Synthesized idempotency key. Can collide for two id-less
		// messages from the same sender inside one second; accepted.
		msg.MessageID = msg.Jid + "_" + strconv.FormatInt(utils.Now().Unix(), 10)
	}
	return msg, c
}

func firstBoolAlias(containers []map[string]interface{}, aliases []string) (bool, bool) {
	for _, c := range containers {
		if c == nil {
			continue
		}
		for _, alias := range aliases {
			if v, ok := lookupBool(c, alias); ok {
				return v, true
			}
		}
	}
	return false, false
}

// DeriveJid turns a raw sender value into (canonical jid, digits-only phone).
// A value carrying an "@" suffix is kept as-is with the phone stripped from
// its local part; a bare value is digit-stripped and promoted to a jid with
// the default suffix.
func DeriveJid(sender string) (jid string, phone string) {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return "", ""
	}
	if at := strings.Index(sender, "@"); at >= 0 {
		phone = nonDigits.ReplaceAllString(sender[:at], "")
		return sender, phone
	}
	phone = nonDigits.ReplaceAllString(sender, "")
	if phone == "" {
		return "", ""
	}
	return phone + DefaultJidSuffix, phone
}

// NormalizeTimestamp interprets the raw timestamp value: all-digit values are
// Unix seconds (or milliseconds when 13 digits long), anything else is parsed
// as a free-form date string, and absence defaults to now.
func NormalizeTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return utils.Now()
	}
	if isAllDigits(raw) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			if len(raw) >= 13 {
				return utils.UnixToTimeWithMilliseconds(n)
			}
			return utils.UnixToTime(n)
		}
	}
	for _, layout := range []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02",
	} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return utils.Now()
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func classifyType(raw, body string) string {
	switch strings.ToLower(raw) {
	case "text", "chat", "conversation", "extendedtextmessage":
		return "text"
	case "":
		if body != "" {
			return "text"
		}
		return "other"
	default:
		return "other"
	}
}
