package mapper

import (
	"context"
	"errors"

	"archieos.app/intake/internal/domain"
)

type CanonicalEventType string

const (
	EventAppMention     CanonicalEventType = "app_mention"
	EventChannelMessage CanonicalEventType = "message.channels"
	EventGroupMessage   CanonicalEventType = "message.groups"
	EventShortcut       CanonicalEventType = "shortcut"
	EventMessageAction  CanonicalEventType = "message_action"
)

var (
	// ErrUnsupportedEvent is returned for payloads the pipeline does not buffer.
	ErrUnsupportedEvent = errors.New("unsupported slack event")
	// ErrIgnoredEvent is returned for supported payloads that are filtered
	// out, such as bot posts and edits.
	ErrIgnoredEvent = errors.New("ignored slack event")
)

type EventMapper interface {
	Map(ctx context.Context, evt domain.InboundEvent) (CanonicalEventType, error)
}
