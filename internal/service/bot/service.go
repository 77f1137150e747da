package bot

import (
	"context"
	"fmt"
	"log/slog"

	"bootcamp-news/internal/config"
	"bootcamp-news/internal/domain"
	"bootcamp-news/internal/service/news"

	"github.com/bwmarrin/discordgo"
)

// Submitter stores news text and queues its preview
type Submitter interface {
	Submit(ctx context.Context, sub news.Submission) (*news.Result, error)
}

// PreviewReader extracts a preview from free text
type PreviewReader interface {
	FromText(ctx context.Context, text string) (domain.Metadata, error)
}

// BotService handles Discord bot operations
type BotService struct {
	config    *config.Config
	logger    *slog.Logger
	session   *discordgo.Session
	submitter Submitter
	newsRepo  domain.NewsRepository
	reader    PreviewReader
}

// New creates a new bot service
func New(
	config *config.Config,
	logger *slog.Logger,
	submitter Submitter,
	newsRepo domain.NewsRepository,
	reader PreviewReader,
) (*BotService, error) {
	session, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	botService := &BotService{
		config:    config,
		logger:    logger,
		session:   session,
		submitter: submitter,
		newsRepo:  newsRepo,
		reader:    reader,
	}
	botService.registerHandlers()

	return botService, nil
}

// Start opens the Discord connection
func (s *BotService) Start() error {
	s.logger.Info("Starting Discord bot...")

	if err := s.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	s.logger.Info("Discord bot connected successfully",
		"news_channel_id", s.config.NewsChannelID,
	)
	return nil
}

// Stop closes the Discord connection
func (s *BotService) Stop() error {
	if s.session != nil {
		s.logger.Info("Closing Discord connection...")
		if err := s.session.Close(); err != nil {
			return fmt.Errorf("failed to close Discord connection: %w", err)
		}
	}

	s.logger.Info("Discord bot stopped")
	return nil
}

func (s *BotService) registerHandlers() {
	s.session.AddHandler(s.onReady)
	s.session.AddHandler(s.onMessageCreate)
	s.session.AddHandler(s.onInteractionCreate)
}

// onReady is called when the bot successfully connects to Discord
func (s *BotService) onReady(session *discordgo.Session, ready *discordgo.Ready) {
	s.logger.Info("Bot is ready",
		"username", ready.User.Username,
		"guilds", len(ready.Guilds),
	)

	if err := s.registerCommands(); err != nil {
		s.logger.Error("Failed to register slash commands", "error", err)
	}

	if err := session.UpdateWatchStatus(0, "bootcamp news"); err != nil {
		s.logger.Error("Failed to set bot status", "error", err)
	}
}
