package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bootcamp-news/internal/domain"
	"bootcamp-news/internal/pkg/discordembed"
	"bootcamp-news/internal/pkg/fetch"

	"github.com/bwmarrin/discordgo"
)

const (
	defaultRecentCount = 5
	maxRecentCount     = 10
	commandTimeout     = 15 * time.Second
	colorNews          = 0x0099ff
)

var minRecentCount = 1.0

// Command definitions
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "preview",
		Description: "Show the link preview of the first URL in some text",
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "text",
				Description: "Text containing a link",
				Required:    true,
			},
		},
	},
	{
		Name:        "recent",
		Description: "Show the latest bootcamp news",
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "count",
				Description: "Number of posts to show",
				MinValue:    &minRecentCount,
				MaxValue:    maxRecentCount,
			},
		},
	},
}

// registerCommands registers slash commands with Discord
func (s *BotService) registerCommands() error {
	s.logger.Info("Registering slash commands...")

	// Global commands take up to an hour to propagate
	_, err := s.session.ApplicationCommandBulkOverwrite(s.session.State.User.ID, "", commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	s.logger.Info("Slash commands registered successfully", "count", len(commands))
	return nil
}

// onInteractionCreate handles slash command interactions
func (s *BotService) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	command := interaction.ApplicationCommandData()
	s.logger.Debug("Received slash command",
		"command", command.Name,
		"user_id", interactionUserID(interaction.Interaction),
		"guild_id", interaction.GuildID,
	)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch command.Name {
	case "preview":
		s.handlePreviewCommand(ctx, session, interaction.Interaction, command.Options)
	case "recent":
		s.respond(session, interaction.Interaction, s.recentResponse(ctx, command.Options))
	default:
		s.respond(session, interaction.Interaction, messageResponse("Unknown command"))
	}
}

// handlePreviewCommand defers the reply while the page is fetched
func (s *BotService) handlePreviewCommand(
	ctx context.Context,
	session *discordgo.Session,
	interaction *discordgo.Interaction,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) {
	err := session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		s.logger.Error("Failed to defer interaction", "error", err)
		return
	}

	edit := s.previewEdit(ctx, stringOption(options, "text"))
	if _, err := session.InteractionResponseEdit(interaction, edit); err != nil {
		s.logger.Error("Failed to edit interaction response", "error", err)
	}
}

// previewEdit builds the reply to /preview
func (s *BotService) previewEdit(ctx context.Context, text string) *discordgo.WebhookEdit {
	preview, err := s.reader.FromText(ctx, text)
	if err != nil {
		s.logger.Warn("Preview extraction failed", "error", err)
		content := previewFailure(err)
		return &discordgo.WebhookEdit{Content: &content}
	}
	if preview.IsEmpty() {
		content := "No link found in that text."
		return &discordgo.WebhookEdit{Content: &content}
	}

	embeds := []*discordgo.MessageEmbed{discordembed.Preview(preview)}
	return &discordgo.WebhookEdit{Embeds: &embeds}
}

// previewFailure describes a failed fetch without transport details
func previewFailure(err error) string {
	var statusErr *fetch.StatusError
	switch {
	case errors.As(err, &statusErr):
		return "Could not fetch that link, it returned " + statusErr.Status + "."
	case errors.Is(err, fetch.ErrBlockedAddress):
		return "That link points to a non-public address."
	default:
		return "Could not fetch that link."
	}
}

// recentResponse builds the reply to /recent
func (s *BotService) recentResponse(ctx context.Context, options []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionResponse {
	count := defaultRecentCount
	if value, ok := intOption(options, "count"); ok && value > 0 {
		count = min(int(value), maxRecentCount)
	}

	posts, err := s.newsRepo.List(ctx, nil, count)
	if err != nil {
		s.logger.Error("Failed to list recent news", "error", err)
		return messageResponse("Could not load recent news, try again later.")
	}
	if len(posts) == 0 {
		return messageResponse("No news posted yet.")
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{recentEmbed(posts)},
		},
	}
}

// recentEmbed lists posts as embed fields, newest first
func recentEmbed(posts []*domain.NewsPost) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(posts))
	for _, post := range posts {
		name := post.Preview.Title
		if name == "" {
			name = post.URL
		}
		if name == "" {
			name = "Untitled"
		}

		var value strings.Builder
		if post.URL != "" {
			value.WriteString(post.URL)
			value.WriteString("\n")
		}
		value.WriteString(fmt.Sprintf("<t:%d:R>", post.PostedAt.Unix()))

		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  truncateField(name, 256),
			Value: value.String(),
		})
	}

	return &discordgo.MessageEmbed{
		Title:  "📰 Recent Bootcamp News",
		Color:  colorNews,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d posts", len(posts)),
		},
	}
}

func (s *BotService) respond(session *discordgo.Session, interaction *discordgo.Interaction, response *discordgo.InteractionResponse) {
	if err := session.InteractionRespond(interaction, response); err != nil {
		s.logger.Error("Failed to respond to interaction", "error", err)
	}
}

func messageResponse(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, option := range options {
		if option.Name == name {
			if value, ok := option.Value.(string); ok {
				return value
			}
		}
	}
	return ""
}

// intOption reads an integer option, Discord sends numbers as float64
func intOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (int64, bool) {
	for _, option := range options {
		if option.Name == name {
			if value, ok := option.Value.(float64); ok {
				return int64(value), true
			}
		}
	}
	return 0, false
}

// interactionUserID works for both guild and direct message interactions
func interactionUserID(interaction *discordgo.Interaction) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}

func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
