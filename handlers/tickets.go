package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"ticket-bot/events"
	"ticket-bot/tickets"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	promptColor = 0x00AAFF
	ticketColor = 0x00AAFF
)

func (a *App) handleSetupTicket(i *discordgo.InteractionCreate) {
	if !tickets.CanPostPrompt(i.Member, a.Cfg.Tickets.SupportRole) {
		a.respond(i, a.Lang.T("no_permission_setup"), true)
		return
	}
	note := strings.TrimSpace(optStr(optionMap(i), "reason", ""))

	embed := &discordgo.MessageEmbed{
		Title:       a.Lang.T("prompt_title"),
		Description: a.Lang.T("prompt_description"),
		Color:       promptColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: a.Lang.T("prompt_footer")},
	}
	if note != "" {
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: a.Lang.T("prompt_note"), Value: note},
		}
	}

	err := a.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    a.Lang.T("prompt_button"),
							Style:    discordgo.SuccessButton,
							CustomID: customOpen,
							Emoji:    &discordgo.ComponentEmoji{Name: "🎫"},
						},
					},
				},
			},
		},
	})
	if err != nil {
		a.Log.Error("post ticket prompt failed",
			zap.String("guild_id", i.GuildID),
			zap.String("channel_id", i.ChannelID),
			zap.Error(err))
		return
	}
	a.Log.Info("ticket prompt posted",
		zap.String("guild_id", i.GuildID),
		zap.String("channel_id", i.ChannelID),
		zap.String("user_id", i.Member.User.ID))
}

func (a *App) handleOpenButton(ctx context.Context, i *discordgo.InteractionCreate) {
	if err := a.deferEphemeral(i); err != nil {
		a.Log.Warn("defer open failed", zap.String("interaction_id", i.ID), zap.Error(err))
		return
	}

	ch, err := a.createTicketChannel(ctx, i.GuildID, i.Member.User, "")
	if err != nil {
		a.Log.Error("create ticket failed",
			zap.String("guild_id", i.GuildID),
			zap.String("user_id", i.Member.User.ID),
			zap.Error(err))
		a.followup(i, a.Lang.T("ticket_create_failed", "error", err.Error()))
		return
	}
	a.followup(i, a.Lang.T("ticket_created", "channel", mentionChannel(ch.ID)))
}

// createTicketChannel opens a private channel for requester under the ticket
// category, posts the welcome message with its close button and registers
// the ticket. The first failing step aborts the rest.
func (a *App) createTicketChannel(ctx context.Context, guildID string, requester *discordgo.User, reason string) (*discordgo.Channel, error) {
	category, err := a.ensureCategory(guildID)
	if err != nil {
		return nil, err
	}

	supportRole, err := a.supportRole(guildID)
	if err != nil {
		return nil, err
	}

	ch, err := a.Session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 tickets.ChannelName(requester.Username, requester.Discriminator, requester.ID),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             category.ID,
		PermissionOverwrites: tickets.Overwrites(guildID, requester.ID, supportRole),
	}, discordgo.WithAuditLogReason("New ticket created"))
	if err != nil {
		return nil, tickets.Platform("create ticket channel", err)
	}

	now := a.now().UTC()
	cause := reason
	if cause == "" {
		cause = a.Lang.T("ticket_reason_missing")
	}
	embed := &discordgo.MessageEmbed{
		Title:       a.Lang.T("ticket_opened_title"),
		Description: a.Lang.T("ticket_opened_description", "user", requester.Mention(), "reason", cause),
		Color:       ticketColor,
		Timestamp:   now.Format(time.RFC3339),
	}

	_, err = a.Session.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Content: requester.Mention(),
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    a.Lang.T("close_button"),
						Style:    discordgo.DangerButton,
						CustomID: customClose + ":" + ch.ID,
					},
				},
			},
		},
	})
	if err != nil {
		return nil, tickets.Platform("send ticket welcome", err)
	}

	a.Registry.Add(tickets.Ticket{
		ChannelID:   ch.ID,
		GuildID:     guildID,
		RequesterID: requester.ID,
		Reason:      reason,
		CreatedAt:   now,
	})
	a.Log.Info("ticket opened",
		zap.String("guild_id", guildID),
		zap.String("channel_id", ch.ID),
		zap.String("channel", ch.Name),
		zap.String("user_id", requester.ID))
	a.publish(ctx, events.Event{
		Type:        events.TypeTicketOpened,
		GuildID:     guildID,
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		UserID:      requester.ID,
		RequesterID: requester.ID,
		OccurredAt:  now,
	})
	return ch, nil
}

func (a *App) ensureCategory(guildID string) (*discordgo.Channel, error) {
	name := a.Cfg.Tickets.CategoryName
	return a.Containers.Ensure(guildID, name,
		func() (*discordgo.Channel, error) {
			channels, err := a.Session.GuildChannels(guildID)
			if err != nil {
				return nil, tickets.Platform("list guild channels", err)
			}
			for _, ch := range channels {
				if ch.Type == discordgo.ChannelTypeGuildCategory && ch.Name == name {
					return ch, nil
				}
			}
			return nil, nil
		},
		func() (*discordgo.Channel, error) {
			ch, err := a.Session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
				Name: name,
				Type: discordgo.ChannelTypeGuildCategory,
			})
			if err != nil {
				return nil, tickets.Platform("create ticket category", err)
			}
			a.Log.Info("ticket category created", zap.String("guild_id", guildID), zap.String("channel_id", ch.ID))
			return ch, nil
		})
}

// supportRole returns the configured support role when it exists in the
// guild, or "".
func (a *App) supportRole(guildID string) (string, error) {
	id := a.Cfg.Tickets.SupportRole
	if id == "" {
		return "", nil
	}
	roles, err := a.Session.GuildRoles(guildID)
	if err != nil {
		return "", tickets.Platform("list guild roles", err)
	}
	for _, r := range roles {
		if r.ID == id {
			return id, nil
		}
	}
	a.Log.Warn("support role not found", zap.String("guild_id", guildID), zap.String("role_id", id))
	return "", nil
}

func (a *App) handleListTickets(i *discordgo.InteractionCreate) {
	if !tickets.CanPostPrompt(i.Member, a.Cfg.Tickets.SupportRole) {
		a.respond(i, a.Lang.T("no_permission_list"), true)
		return
	}

	open := a.Registry.List(i.GuildID)
	if len(open) == 0 {
		a.respond(i, a.Lang.T("list_empty"), true)
		return
	}

	var sb strings.Builder
	sb.WriteString(a.Lang.T("list_header", "count", strconv.Itoa(len(open))))
	for _, t := range open {
		sb.WriteString("\n")
		sb.WriteString(a.Lang.T("list_entry",
			"channel", mentionChannel(t.ChannelID),
			"user", mentionUser(t.RequesterID),
			"opened", strconv.FormatInt(t.CreatedAt.Unix(), 10)))
	}
	a.respond(i, sb.String(), true)
}
