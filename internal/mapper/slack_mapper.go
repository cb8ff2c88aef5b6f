package mapper

import (
	"context"
	"fmt"

	"archieos.app/intake/internal/domain"
)

// bufferedSubtypes are message subtypes that still carry a human-authored
// message. Every other subtype (edits, deletes, joins, bot posts) is ignored.
var bufferedSubtypes = map[string]bool{
	"":                 true,
	"file_share":       true,
	"thread_broadcast": true,
}

type SlackEventMapper struct{}

func NewSlackEventMapper() *SlackEventMapper {
	return &SlackEventMapper{}
}

func (m *SlackEventMapper) Map(ctx context.Context, evt domain.InboundEvent) (CanonicalEventType, error) {
	switch evt.Type {
	case domain.PayloadEventCallback:
		return m.mapEventCallback(evt.Event)
	case domain.PayloadShortcut:
		return EventShortcut, nil
	case domain.PayloadMessageAction:
		return EventMessageAction, nil
	}
	return "", fmt.Errorf("%w: payload type %q", ErrUnsupportedEvent, evt.Type)
}

func (m *SlackEventMapper) mapEventCallback(event *domain.SlackEvent) (CanonicalEventType, error) {
	if event == nil {
		return "", fmt.Errorf("%w: event_callback without event", ErrUnsupportedEvent)
	}
	if event.BotID != "" {
		return "", fmt.Errorf("%w: bot message", ErrIgnoredEvent)
	}

	switch event.Type {
	case "app_mention":
		return EventAppMention, nil
	case "message":
		if !bufferedSubtypes[event.Subtype] {
			return "", fmt.Errorf("%w: message subtype %q", ErrIgnoredEvent, event.Subtype)
		}
		switch event.ChannelType {
		case "channel":
			return EventChannelMessage, nil
		case "group":
			return EventGroupMessage, nil
		}
		return "", fmt.Errorf("%w: channel_type %q", ErrUnsupportedEvent, event.ChannelType)
	}

	return "", fmt.Errorf("%w: event type %q", ErrUnsupportedEvent, event.Type)
}
