package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	ColorInfo = 0x3498DB // Blue

	// Discord rejects embed descriptions longer than this
	maxEmbedDescription = 4096
)

// webhookExecutor is the slice of *discordgo.Session used by the notifier
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts operator notifications to a Discord webhook
type DiscordNotifier struct {
	session   webhookExecutor
	webhookID string
	token     string
	username  string
}

// NewDiscordNotifier creates a notifier for the given webhook.
// Webhook execution needs no bot token, so the session is unauthenticated.
func NewDiscordNotifier(webhookID, token, username string) (*DiscordNotifier, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &DiscordNotifier{
		session:   session,
		webhookID: webhookID,
		token:     token,
		username:  username,
	}, nil
}

// Notify sends one embed with the given title and message
func (n *DiscordNotifier) Notify(ctx context.Context, title, message string) error {
	params := &discordgo.WebhookParams{
		Username: n.username,
		Embeds:   []*discordgo.MessageEmbed{buildNotificationEmbed(title, message, time.Now())},
	}

	if _, err := n.session.WebhookExecute(n.webhookID, n.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to execute Discord webhook: %w", err)
	}

	log.WithField("title", title).Debug("Sent Discord notification")
	return nil
}

func buildNotificationEmbed(title, message string, at time.Time) *discordgo.MessageEmbed {
	if len(message) > maxEmbedDescription {
		message = message[:maxEmbedDescription-3] + "..."
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: message,
		Color:       ColorInfo,
		Timestamp:   at.UTC().Format(time.RFC3339),
	}
}
