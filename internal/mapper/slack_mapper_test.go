package mapper_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"archieos.app/intake/internal/domain"
	"archieos.app/intake/internal/mapper"
)

var _ = Describe("SlackEventMapper", func() {
	var (
		m   *mapper.SlackEventMapper
		ctx context.Context
	)

	BeforeEach(func() {
		m = mapper.NewSlackEventMapper()
		ctx = context.Background()
	})

	callback := func(event domain.SlackEvent) domain.InboundEvent {
		return domain.InboundEvent{Type: domain.PayloadEventCallback, EventID: "Ev1", Event: &event}
	}

	DescribeTable("buffered events",
		func(evt domain.InboundEvent, expected mapper.CanonicalEventType) {
			got, err := m.Map(ctx, evt)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(expected))
		},
		Entry("app mention", callback(domain.SlackEvent{Type: "app_mention", Text: "<@U1> new listing"}), mapper.EventAppMention),
		Entry("public channel message", callback(domain.SlackEvent{Type: "message", ChannelType: "channel"}), mapper.EventChannelMessage),
		Entry("private channel message", callback(domain.SlackEvent{Type: "message", ChannelType: "group"}), mapper.EventGroupMessage),
		Entry("file share", callback(domain.SlackEvent{Type: "message", Subtype: "file_share", ChannelType: "channel"}), mapper.EventChannelMessage),
		Entry("shortcut", domain.InboundEvent{Type: domain.PayloadShortcut, CallbackID: "create_task"}, mapper.EventShortcut),
		Entry("message action", domain.InboundEvent{Type: domain.PayloadMessageAction}, mapper.EventMessageAction),
	)

	DescribeTable("ignored events",
		func(evt domain.InboundEvent) {
			_, err := m.Map(ctx, evt)
			Expect(err).To(MatchError(mapper.ErrIgnoredEvent))
		},
		Entry("bot post", callback(domain.SlackEvent{Type: "message", ChannelType: "channel", BotID: "B1"})),
		Entry("edit", callback(domain.SlackEvent{Type: "message", Subtype: "message_changed", ChannelType: "channel"})),
		Entry("delete", callback(domain.SlackEvent{Type: "message", Subtype: "message_deleted", ChannelType: "channel"})),
		Entry("join", callback(domain.SlackEvent{Type: "message", Subtype: "channel_join", ChannelType: "channel"})),
	)

	DescribeTable("unsupported events",
		func(evt domain.InboundEvent) {
			_, err := m.Map(ctx, evt)
			Expect(err).To(MatchError(mapper.ErrUnsupportedEvent))
		},
		Entry("direct message", callback(domain.SlackEvent{Type: "message", ChannelType: "im"})),
		Entry("reaction", callback(domain.SlackEvent{Type: "reaction_added"})),
		Entry("callback without event", domain.InboundEvent{Type: domain.PayloadEventCallback}),
		Entry("block action", domain.InboundEvent{Type: "block_actions"}),
		Entry("empty", domain.InboundEvent{}),
	)
})
