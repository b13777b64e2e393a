package handlers

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	customOpen    = "ticket_open"
	customClose   = "ticket_close"
	customConfirm = "ticket_confirm"
	customCancel  = "ticket_cancel"
)

var manageServerPerm int64 = discordgo.PermissionManageServer

func Commands() []*discordgo.ApplicationCommand {
	minLimit := float64(1)
	return []*discordgo.ApplicationCommand{
		{
			Name:        "setup_ticket",
			Description: "Setup a ticket message in the current channel",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Optional: short description shown on the ticket embed"},
			},
		},
		{
			Name:                     "force_close",
			Description:              "Force close a ticket channel by channel id (admin only)",
			DefaultMemberPermissions: &manageServerPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "channel_id", Description: "Channel ID to close", Required: true},
			},
		},
		{
			Name:        "list_tickets",
			Description: "List open tickets",
		},
		{
			Name:                     "transcripts",
			Description:              "List recently archived transcripts",
			DefaultMemberPermissions: &manageServerPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "limit", Description: "How many to show (default 10)", MinValue: &minLimit, MaxValue: 50},
			},
		},
	}
}

func (a *App) handleSlashCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	switch name {
	case "setup_ticket":
		a.handleSetupTicket(i)
	case "force_close":
		a.handleForceClose(ctx, i)
	case "list_tickets":
		a.handleListTickets(i)
	case "transcripts":
		a.handleTranscripts(ctx, i)
	default:
		a.Log.Warn("unknown command", zap.String("command", name))
	}
}

func (a *App) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	action, arg, _ := strings.Cut(customID, ":")

	switch action {
	case customOpen:
		a.handleOpenButton(ctx, i)
	case customClose:
		a.handleCloseButton(i, arg)
	case customConfirm:
		a.handleCloseConfirm(ctx, i, arg)
	case customCancel:
		a.handleCloseCancel(i, arg)
	default:
		a.Log.Debug("unknown component", zap.String("custom_id", customID))
	}
}

func (a *App) respond(i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := a.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		a.Log.Warn("respond failed", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

func (a *App) deferEphemeral(i *discordgo.InteractionCreate) error {
	return a.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func (a *App) followup(i *discordgo.InteractionCreate, content string) {
	_, err := a.Session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		a.Log.Debug("followup failed", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		m[opt.Name] = opt
	}
	return m
}

func optStr(m map[string]*discordgo.ApplicationCommandInteractionDataOption, key, def string) string {
	if o, ok := m[key]; ok && o.Type == discordgo.ApplicationCommandOptionString {
		return o.StringValue()
	}
	return def
}

func optInt(m map[string]*discordgo.ApplicationCommandInteractionDataOption, key string, def int64) int64 {
	if o, ok := m[key]; ok && o.Type == discordgo.ApplicationCommandOptionInteger {
		return o.IntValue()
	}
	return def
}

func mentionChannel(id string) string {
	return "<#" + id + ">"
}

func mentionUser(id string) string {
	return "<@" + id + ">"
}
