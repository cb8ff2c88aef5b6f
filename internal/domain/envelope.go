package domain

import "encoding/json"

// EnvelopeSchema identifies the envelope layout stored in intake_queue.
const EnvelopeSchema = "classification_v1"

// ClassificationEnvelope is the immutable unit written to the intake queue.
type ClassificationEnvelope struct {
	Schema         string               `json:"schema"`
	IdempotencyKey string               `json:"idempotency_key"`
	Source         EnvelopeSource       `json:"source"`
	Payload        ClassificationResult `json:"payload"`
	Links          []string             `json:"links"`
	Attachments    []json.RawMessage    `json:"attachments"`
}

type EnvelopeSource struct {
	SlackUserID string `json:"slack_user_id"`
	ChannelID   string `json:"channel_id"`
	TS          string `json:"ts"`
	Text        string `json:"text"`
}

// IdempotencyKey is the queue-level key for a message: "{channel}:{ts}".
func IdempotencyKey(channelID, ts string) string {
	return channelID + ":" + ts
}

// NewEnvelope builds an envelope for msg. links and attachments are copied
// so later mutation by the caller cannot reach the queued value.
func NewEnvelope(msg SlackMessage, result ClassificationResult) ClassificationEnvelope {
	links := make([]string, len(msg.Links))
	copy(links, msg.Links)
	attachments := make([]json.RawMessage, len(msg.Attachments))
	copy(attachments, msg.Attachments)

	return ClassificationEnvelope{
		Schema:         EnvelopeSchema,
		IdempotencyKey: IdempotencyKey(msg.ChannelID, msg.TS),
		Source: EnvelopeSource{
			SlackUserID: msg.UserID,
			ChannelID:   msg.ChannelID,
			TS:          msg.TS,
			Text:        msg.Text,
		},
		Payload:     result,
		Links:       links,
		Attachments: attachments,
	}
}
