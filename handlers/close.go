package handlers

import (
	"context"
	"errors"
	"strings"

	"ticket-bot/config"
	"ticket-bot/tickets"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (a *App) handleCloseButton(i *discordgo.InteractionCreate, channelID string) {
	if channelID == "" {
		channelID = i.ChannelID
	}

	var requesterID string
	if t, ok := a.Registry.Get(channelID); ok {
		requesterID = t.RequesterID
	}
	if !tickets.CanClose(i.Member, requesterID, a.Cfg.Tickets.SupportRole) {
		a.respond(i, a.Lang.T("no_permission_close"), true)
		return
	}

	conf := a.Confirms.Begin(channelID, i.GuildID, i.Member.User.ID)
	err := a.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: a.Lang.T("close_confirm_prompt"),
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{Label: a.Lang.T("close_confirm_button"), Style: discordgo.DangerButton, CustomID: customConfirm + ":" + conf.Token},
						discordgo.Button{Label: a.Lang.T("close_cancel_button"), Style: discordgo.SecondaryButton, CustomID: customCancel + ":" + conf.Token},
					},
				},
			},
		},
	})
	if err != nil {
		a.Log.Warn("send close confirmation failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (a *App) handleCloseCancel(i *discordgo.InteractionCreate, token string) {
	if _, err := a.Confirms.Resolve(token, i.Member.User.ID, tickets.Canceled); err != nil {
		a.rejectConfirmation(i, err)
		return
	}

	err := a.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    a.Lang.T("close_canceled"),
			Components: []discordgo.MessageComponent{},
			Embeds:     []*discordgo.MessageEmbed{},
		},
	})
	if err != nil {
		a.Log.Warn("update canceled confirmation failed", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

func (a *App) handleCloseConfirm(ctx context.Context, i *discordgo.InteractionCreate, token string) {
	conf, err := a.Confirms.Resolve(token, i.Member.User.ID, tickets.Confirmed)
	if err != nil {
		a.rejectConfirmation(i, err)
		return
	}
	if err := a.deferEphemeral(i); err != nil {
		a.Log.Warn("defer close failed", zap.String("interaction_id", i.ID), zap.Error(err))
	}

	if _, err := a.closeTicket(ctx, conf.ChannelID, i.Member.User); err != nil {
		a.followup(i, a.closeErrorMessage(err))
		return
	}
	a.followup(i, a.Lang.T("close_done"))
}

func (a *App) handleForceClose(ctx context.Context, i *discordgo.InteractionCreate) {
	if !tickets.CanAdminister(i.Member) {
		a.respond(i, a.Lang.T("no_permission_admin"), true)
		return
	}

	raw := strings.TrimSpace(optStr(optionMap(i), "channel_id", ""))
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "<#"), ">")
	if !config.IsSnowflake(raw) {
		a.respond(i, a.Lang.T("force_close_not_found"), true)
		return
	}
	ch, err := a.Session.Channel(raw)
	if err != nil || ch.GuildID != i.GuildID || ch.Type != discordgo.ChannelTypeGuildText {
		a.respond(i, a.Lang.T("force_close_not_found"), true)
		return
	}

	a.respond(i, a.Lang.T("force_close_started"), true)
	if _, err := a.closeTicket(ctx, ch.ID, i.Member.User); err != nil {
		a.followup(i, a.closeErrorMessage(err))
		return
	}
	a.followup(i, a.Lang.T("force_close_done"))
}

func (a *App) rejectConfirmation(i *discordgo.InteractionCreate, err error) {
	if errors.Is(err, tickets.ErrPermissionDenied) {
		a.respond(i, a.Lang.T("no_permission_close"), true)
		return
	}
	a.Log.Debug("stale close confirmation", zap.String("user_id", i.Member.User.ID), zap.Error(err))
	a.respond(i, a.Lang.T("close_expired"), true)
}

func (a *App) closeErrorMessage(err error) string {
	switch {
	case errors.Is(err, tickets.ErrAlreadyClosing):
		return a.Lang.T("close_in_progress")
	case errors.Is(err, tickets.ErrChannelGone):
		return a.Lang.T("close_missing_channel")
	}
	return a.Lang.T("close_failed", "error", err.Error())
}
