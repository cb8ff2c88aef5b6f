package domain

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Inbound payload types delivered to the Slack webhook.
const (
	PayloadURLVerification = "url_verification"
	PayloadEventCallback   = "event_callback"
	PayloadShortcut        = "shortcut"
	PayloadMessageAction   = "message_action"
)

// InboundEvent is a raw Slack webhook payload: either an Events API
// envelope or an interactive (shortcut / message action) payload.
type InboundEvent struct {
	Type      string      `json:"type"`
	Challenge string      `json:"challenge,omitempty"`
	TeamID    string      `json:"team_id,omitempty"`
	EventID   string      `json:"event_id,omitempty"`
	EventTime int64       `json:"event_time,omitempty"`
	Event     *SlackEvent `json:"event,omitempty"`

	CallbackID string      `json:"callback_id,omitempty"`
	ActionTS   string      `json:"action_ts,omitempty"`
	Message    *SlackEvent `json:"message,omitempty"`
	User       SlackID     `json:"user,omitempty"`
	Channel    SlackID     `json:"channel,omitempty"`
}

// SlackEvent is the inner "event" object, or the "message" of an action.
type SlackEvent struct {
	Type        string            `json:"type"`
	Subtype     string            `json:"subtype,omitempty"`
	Text        string            `json:"text,omitempty"`
	User        SlackID           `json:"user,omitempty"`
	BotID       string            `json:"bot_id,omitempty"`
	Channel     SlackID           `json:"channel,omitempty"`
	ChannelType string            `json:"channel_type,omitempty"`
	TS          string            `json:"ts,omitempty"`
	EventTS     string            `json:"event_ts,omitempty"`
	ThreadTS    string            `json:"thread_ts,omitempty"`
	Files       []json.RawMessage `json:"files,omitempty"`
}

// SlackID accepts both forms Slack uses for users and channels:
// a bare id string or an object with an "id" field.
type SlackID string

func (s *SlackID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = SlackID(str)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = SlackID(obj.ID)
	return nil
}

func (s SlackID) String() string {
	return string(s)
}

// SlackMessage holds the fields extracted from an inbound event that the
// classifier needs.
type SlackMessage struct {
	Text        string
	UserID      string
	ChannelID   string
	TS          string
	Links       []string
	Attachments []json.RawMessage
}

// ConversationID returns the channel the event belongs to, or "".
func (e InboundEvent) ConversationID() string {
	switch e.Type {
	case PayloadEventCallback:
		if e.Event != nil {
			return e.Event.Channel.String()
		}
	case PayloadShortcut, PayloadMessageAction:
		if e.Channel != "" {
			return e.Channel.String()
		}
		if e.Message != nil {
			return e.Message.Channel.String()
		}
	}
	return ""
}

// ExtractMessage pulls text, user, channel, and timestamp out of either
// payload shape. ok is false when any of them is missing.
func (e InboundEvent) ExtractMessage() (SlackMessage, bool) {
	var msg SlackMessage

	switch e.Type {
	case PayloadEventCallback:
		if e.Event == nil {
			return msg, false
		}
		msg.Text = e.Event.Text
		msg.UserID = e.Event.User.String()
		msg.ChannelID = e.Event.Channel.String()
		msg.TS = firstNonEmpty(e.Event.TS, e.Event.EventTS)
		msg.Attachments = e.Event.Files
	case PayloadShortcut, PayloadMessageAction:
		if e.Message != nil {
			msg.Text = e.Message.Text
			msg.TS = e.Message.TS
			msg.Attachments = e.Message.Files
		}
		msg.UserID = e.User.String()
		msg.ChannelID = e.ConversationID()
		msg.TS = firstNonEmpty(e.ActionTS, msg.TS)
	default:
		return msg, false
	}

	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" || msg.UserID == "" || msg.ChannelID == "" || msg.TS == "" {
		return msg, false
	}
	return msg, true
}

// EventIdentity derives the deduplication key for a payload:
// the explicit event_id, else "slack_event_<ts>" for event callbacks,
// else the SHA-1 of the canonical JSON body.
func EventIdentity(evt InboundEvent, rawBody []byte) string {
	if evt.EventID != "" {
		return evt.EventID
	}
	if evt.Type == PayloadEventCallback && evt.Event != nil {
		if ts := firstNonEmpty(evt.Event.EventTS, evt.Event.TS); ts != "" {
			return "slack_event_" + ts
		}
	}

	sum := sha1.Sum(CanonicalJSON(rawBody))
	return hex.EncodeToString(sum[:])
}

// CanonicalJSON re-encodes body with object keys sorted and insignificant
// whitespace removed. Bodies that are not JSON are returned unchanged.
func CanonicalJSON(body []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return body
	}
	out, err := json.Marshal(v)
	if err != nil {
		return body
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
