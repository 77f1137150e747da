package bot

import (
	"context"
	"time"

	"bootcamp-news/internal/pkg/urldetector"
	"bootcamp-news/internal/service/news"

	"github.com/bwmarrin/discordgo"
)

// Reactions added to a message once it became a news post
const (
	reactionNews   = "📰"
	reactionRepost = "🔁"
)

const submitTimeout = 10 * time.Second

// onMessageCreate handles new Discord messages
func (s *BotService) onMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	reaction := s.handleMessage(ctx, message.Message)
	if reaction == "" {
		return
	}

	if err := session.MessageReactionAdd(message.ChannelID, message.ID, reaction); err != nil {
		s.logger.Warn("Failed to add emoji reaction",
			"error", err,
			"message_id", message.ID,
		)
	}
}

// handleMessage turns a message with a link into a news post. It returns the
// reaction to add, or "" when the message was ignored.
func (s *BotService) handleMessage(ctx context.Context, message *discordgo.Message) string {
	if message.Author == nil || message.Author.Bot {
		return ""
	}
	if s.config.NewsChannelID != "" && message.ChannelID != s.config.NewsChannelID {
		return ""
	}
	if _, ok := urldetector.FirstURL(message.Content); !ok {
		return ""
	}

	result, err := s.submitter.Submit(ctx, news.Submission{
		Text:             message.Content,
		DiscordMessageID: message.ID,
		DiscordChannelID: message.ChannelID,
		PostedAt:         message.Timestamp,
	})
	if err != nil {
		s.logger.Error("Failed to submit news post",
			"error", err,
			"message_id", message.ID,
			"channel_id", message.ChannelID,
		)
		return ""
	}
	if !result.Created {
		return ""
	}

	s.logger.Info("News link detected",
		"post_id", result.Post.ID,
		"url", result.Post.URL,
		"message_id", message.ID,
		"guild_id", message.GuildID,
	)

	if result.Repost {
		return reactionRepost
	}
	return reactionNews
}
