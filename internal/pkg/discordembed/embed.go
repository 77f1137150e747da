// Package discordembed renders link previews as Discord embeds.
package discordembed

import (
	"bootcamp-news/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// Discord embed limits
const (
	MaxTitle       = 256
	MaxDescription = 4096
)

// Preview renders a link preview as a Discord embed
func Preview(preview domain.Metadata) *discordgo.MessageEmbed {
	title := preview.Title
	if title == "" {
		title = preview.URL
	}

	embed := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeLink,
		URL:         preview.URL,
		Title:       truncate(title, MaxTitle),
		Description: truncate(preview.Description, MaxDescription),
	}
	if preview.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: preview.Image}
	}
	if preview.Type != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: preview.Type}
	}
	return embed
}

// truncate shortens s to at most max runes, ending with an ellipsis when cut
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
