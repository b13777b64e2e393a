package handlers

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"ticket-bot/tickets"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// maxContent leaves headroom under the 2000 character message limit.
const maxContent = 1900

func (a *App) handleTranscripts(ctx context.Context, i *discordgo.InteractionCreate) {
	if !tickets.CanAdminister(i.Member) {
		a.respond(i, a.Lang.T("no_permission_admin"), true)
		return
	}

	limit := int(optInt(optionMap(i), "limit", 10))
	entries, err := a.Index.RecentTranscripts(ctx, i.GuildID, limit)
	if err != nil {
		a.Log.Error("list transcripts failed", zap.String("guild_id", i.GuildID), zap.Error(err))
		a.respond(i, a.Lang.T("transcripts_failed", "error", err.Error()), true)
		return
	}
	if len(entries) == 0 {
		a.respond(i, a.Lang.T("transcripts_empty"), true)
		return
	}

	var sb strings.Builder
	sb.WriteString(a.Lang.T("transcripts_header", "count", strconv.Itoa(len(entries))))
	for _, e := range entries {
		line := a.Lang.T("transcripts_entry",
			"name", filepath.Base(e.File),
			"id", e.ChannelID,
			"closer", mentionUser(e.CloserID),
			"closed", strconv.FormatInt(e.ClosedAt.Unix(), 10),
			"messages", strconv.Itoa(e.Messages))
		if sb.Len()+len(line)+1 > maxContent {
			break
		}
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	a.respond(i, sb.String(), true)
}
