package providers

import (
	"context"
	"fmt"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/models/entities"

	"github.com/bwmarrin/discordgo"
)

const discordTimeout = 5 * time.Second

// DiscordProvider talks to the Discord REST API with the bot token. It never
// opens the gateway; only REST calls are made.
type DiscordProvider struct {
	session *discordgo.Session
	guildID string
}

var (
	_ RoleResolver    = (*DiscordProvider)(nil)
	_ DirectMessenger = (*DiscordProvider)(nil)
)

func NewDiscordProvider(botToken, guildID string) (*DiscordProvider, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Client.Timeout = discordTimeout
	return &DiscordProvider{session: session, guildID: guildID}, nil
}

// MemberRoles returns the member's role ids in the configured guild.
func (p *DiscordProvider) MemberRoles(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, discordTimeout)
	defer cancel()

	member, err := p.session.GuildMember(p.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, &ProviderError{Code: ErrCodeUpstream, Message: "Failed to fetch guild member", Err: err}
	}
	return append([]string{}, member.Roles...), nil
}

// SendDecision opens a DM channel with the user and posts an embed.
func (p *DiscordProvider) SendDecision(ctx context.Context, userID string, msg DecisionMessage) error {
	ctx, cancel := context.WithTimeout(ctx, discordTimeout)
	defer cancel()

	channel, err := p.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return &ProviderError{Code: ErrCodeUpstream, Message: "Failed to open DM channel", Err: err}
	}
	if _, err := p.session.ChannelMessageSendEmbed(channel.ID, DecisionEmbed(msg), discordgo.WithContext(ctx)); err != nil {
		return &ProviderError{Code: ErrCodeUpstream, Message: "Failed to send DM", Err: err}
	}
	return nil
}

// DecisionEmbed renders the DM for an approve or deny decision.
func DecisionEmbed(msg DecisionMessage) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Footer:    &discordgo.MessageEmbedFooter{Text: msg.ServerName},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if msg.Status == constants.StatusApproved {
		embed.Title = "Application approved"
		embed.Color = 0x2ecc71
		embed.Description = fmt.Sprintf("Your %s application has been approved.", msg.TypeName)
	} else {
		embed.Title = "Application denied"
		embed.Color = 0xe74c3c
		embed.Description = fmt.Sprintf("Your %s application has been denied.", msg.TypeName)
	}

	if msg.Reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: msg.Reason})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Application", Value: msg.ApplicationID, Inline: true})
	return embed
}

// DiscordIdentityFetcher reads /users/@me with a user's OAuth token.
type DiscordIdentityFetcher struct{}

var _ IdentityFetcher = DiscordIdentityFetcher{}

func (DiscordIdentityFetcher) FetchIdentity(ctx context.Context, accessToken string) (*entities.DiscordIdentity, error) {
	session, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, &ProviderError{Code: ErrCodeUnauthorized, Message: "Invalid access token", Err: err}
	}
	session.Client.Timeout = discordTimeout

	user, err := session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, &ProviderError{Code: ErrCodeUpstream, Message: "Failed to fetch Discord user", Err: err}
	}
	return &entities.DiscordIdentity{
		ID:            user.ID,
		Username:      user.Username,
		Discriminator: user.Discriminator,
		Avatar:        user.Avatar,
		Email:         user.Email,
	}, nil
}
