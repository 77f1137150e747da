package worker

import (
	"context"
	"fmt"

	"bootcamp-news/internal/domain"
	"bootcamp-news/internal/pkg/discordembed"

	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier replies to the original message with a preview embed
type DiscordNotifier struct {
	session *discordgo.Session
}

// NewDiscordNotifier creates a notifier on an existing Discord session
func NewDiscordNotifier(session *discordgo.Session) *DiscordNotifier {
	return &DiscordNotifier{session: session}
}

// NotifyPreview sends the embed, as a reply when messageID is known
func (n *DiscordNotifier) NotifyPreview(ctx context.Context, channelID, messageID string, preview domain.Metadata) error {
	embed := discordembed.Preview(preview)

	var err error
	if messageID != "" {
		_, err = n.session.ChannelMessageSendEmbedReply(channelID, embed, &discordgo.MessageReference{
			MessageID: messageID,
			ChannelID: channelID,
		}, discordgo.WithContext(ctx))
	} else {
		_, err = n.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	}
	if err != nil {
		return fmt.Errorf("failed to send embed to channel %s: %w", channelID, err)
	}
	return nil
}

// Close closes the underlying Discord session
func (n *DiscordNotifier) Close() error {
	return n.session.Close()
}
