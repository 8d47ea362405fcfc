package normalizer

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var payload map[string]interface{}
	require.NoError(t, dec.Decode(&payload))
	return payload
}

func TestNormalizeAliasCoverage(t *testing.T) {
	// The same semantic message in the four supported payload shapes must
	// normalize identically.
	shapes := map[string]string{
		"flat": `{
			"from": "6281234567890",
			"name": "Budi",
			"message": {"text": "halo"},
			"id": "msg-1",
			"timestamp": 1700000000
		}`,
		"enveloped": `{
			"event": "message.received",
			"data": {
				"from": "6281234567890@s.whatsapp.net",
				"pushName": "Budi",
				"body": "halo",
				"id": "msg-1",
				"timestamp": "1700000000"
			}
		}`,
		"message-contact": `{
			"message": {
				"remoteJid": "6281234567890@s.whatsapp.net",
				"text": "halo",
				"id": "msg-1",
				"timestamp": 1700000000
			},
			"contact": {"name": "Budi"}
		}`,
		"cloud-api": `{
			"entry": [{
				"changes": [{
					"value": {
						"messages": [{
							"from": "6281234567890",
							"id": "msg-1",
							"timestamp": "1700000000",
							"text": {"body": "halo"},
							"type": "text"
						}],
						"contacts": [{
							"wa_id": "6281234567890",
							"profile": {"name": "Budi"}
						}]
					}
				}]
			}]
		}`,
	}

	want := time.Unix(1700000000, 0).UTC()
	for name, raw := range shapes {
		t.Run(name, func(t *testing.T) {
			msg, _ := Normalize(decode(t, raw))
			assert.Equal(t, "6281234567890@s.whatsapp.net", msg.Jid)
			assert.Equal(t, "6281234567890", msg.Phone)
			assert.Equal(t, "Budi", msg.PushName)
			assert.Equal(t, "halo", msg.Body)
			assert.Equal(t, "msg-1", msg.MessageID)
			assert.Equal(t, want, msg.Timestamp.UTC())
			assert.Equal(t, "text", msg.MessageType)
			assert.False(t, msg.IsGroup)
		})
	}
}

func TestNormalizeGroupMessage(t *testing.T) {
	msg, _ := Normalize(decode(t, `{
		"from": "120363041234567890@g.us",
		"subject": "Ops Team",
		"body": "meeting at 10",
		"id": "grp-1"
	}`))
	assert.True(t, msg.IsGroup)
	assert.Equal(t, "Ops Team", msg.GroupName)
	assert.Equal(t, "120363041234567890@g.us", msg.Jid)
	assert.Equal(t, "120363041234567890", msg.Phone)
}

func TestNormalizeSynthesizesMessageID(t *testing.T) {
	msg, _ := Normalize(decode(t, `{"from": "6281234567890", "body": "hi"}`))
	require.NotEmpty(t, msg.MessageID)
	assert.True(t, strings.HasPrefix(msg.MessageID, "6281234567890@s.whatsapp.net_"))
}

func TestNormalizeNoSender(t *testing.T) {
	msg, _ := Normalize(decode(t, `{"event": "status.update", "status": "delivered"}`))
	assert.Empty(t, msg.Jid)
	assert.Empty(t, msg.Phone)
}

func TestNormalizeNumericStringification(t *testing.T) {
	// Numeric sender and id values must survive without float mangling.
	msg, _ := Normalize(decode(t, `{"phone": 6281234567890, "id": 987654321098765432}`))
	assert.Equal(t, "6281234567890@s.whatsapp.net", msg.Jid)
	assert.Equal(t, "987654321098765432", msg.MessageID)
}

func TestDeriveJid(t *testing.T) {
	tests := []struct {
		name      string
		sender    string
		wantJid   string
		wantPhone string
	}{
		{"full jid", "6281234567890@s.whatsapp.net", "6281234567890@s.whatsapp.net", "6281234567890"},
		{"legacy suffix", "6281234567890@c.us", "6281234567890@c.us", "6281234567890"},
		{"bare digits", "6281234567890", "6281234567890@s.whatsapp.net", "6281234567890"},
		{"formatted number", "+62 812-3456-7890", "6281234567890@s.whatsapp.net", "6281234567890"},
		{"empty", "", "", ""},
		{"no digits", "hello", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jid, phone := DeriveJid(tt.sender)
			assert.Equal(t, tt.wantJid, jid)
			assert.Equal(t, tt.wantPhone, phone)
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	want := time.Unix(1700000000, 0).UTC()

	assert.Equal(t, want, NormalizeTimestamp("1700000000").UTC())
	assert.Equal(t, want, NormalizeTimestamp("1700000000000").UTC())
	assert.Equal(t, want, NormalizeTimestamp("2023-11-14T22:13:20Z").UTC())

	// Absent timestamp defaults to processing time.
	before := time.Now().UTC()
	got := NormalizeTimestamp("")
	after := time.Now().UTC()
	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}
