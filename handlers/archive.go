package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"ticket-bot/events"
	"ticket-bot/storage"
	"ticket-bot/tickets"
	"ticket-bot/transcript"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type archiveResult struct {
	Path     string
	Messages int
	OpenerID string
	Deleted  bool
}

// closeTicket archives and deletes a channel unless another close of the
// same channel is running (tickets.ErrAlreadyClosing) or has already
// removed it (tickets.ErrChannelGone).
func (a *App) closeTicket(ctx context.Context, channelID string, closer *discordgo.User) (*archiveResult, error) {
	unlock, err := a.Locker.TryLock(ctx, channelID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ch, err := a.Session.Channel(channelID)
	if err != nil {
		if !tickets.IsUnknownChannel(err) {
			a.Log.Warn("get ticket channel failed", zap.String("channel_id", channelID), zap.Error(err))
			return nil, tickets.Platform("get channel", err)
		}
		a.Log.Info("ticket channel gone before close", zap.String("channel_id", channelID), zap.Error(err))
		a.Registry.Remove(channelID)
		return nil, fmt.Errorf("%w: %w", tickets.ErrChannelGone, tickets.Platform("get channel", err))
	}
	return a.archiveAndDelete(ctx, ch, closer)
}

// archiveAndDelete writes the channel transcript, hands it to the log channel
// and the opener, then deletes the channel. Only a failure to build or write
// the transcript is returned; the channel is kept in that case.
func (a *App) archiveAndDelete(ctx context.Context, ch *discordgo.Channel, closer *discordgo.User) (*archiveResult, error) {
	log := a.Log.With(
		zap.String("guild_id", ch.GuildID),
		zap.String("channel_id", ch.ID),
		zap.String("closer_id", closer.ID))

	header := transcript.Header{
		ChannelName: ch.Name,
		ChannelID:   ch.ID,
		CloserName:  transcript.DisplayTag(closer),
		CloserID:    closer.ID,
		ClosedAt:    a.now().UTC(),
	}
	tr, err := transcript.Collect(header, transcript.History(a.Session, ch.ID))
	if err != nil {
		log.Error("read ticket history failed", zap.Error(err))
		return nil, tickets.Platform("read channel history", err)
	}

	path, err := a.Transcripts.Save(tr)
	if err != nil {
		log.Error("write transcript failed", zap.Error(err))
		return nil, err
	}

	var requesterID string
	if t, ok := a.Registry.Get(ch.ID); ok {
		requesterID = t.RequesterID
	}
	res := &archiveResult{Path: path, Messages: len(tr.Records), OpenerID: requesterID}
	if res.OpenerID == "" {
		res.OpenerID = tr.FirstAuthorID()
	}

	entry := storage.TranscriptEntry{
		GuildID:     ch.GuildID,
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		RequesterID: res.OpenerID,
		CloserID:    closer.ID,
		File:        path,
		Messages:    res.Messages,
		ClosedAt:    header.ClosedAt,
	}
	if err := a.Index.RecordTranscript(ctx, entry); err != nil {
		log.Warn("index transcript failed", zap.Error(err))
	}

	filename := filepath.Base(path)
	a.uploadToLogChannel(log, ch, closer, filename, tr)
	a.sendToOpener(log, res.OpenerID, ch, closer, filename, tr)

	a.sleep(a.Cfg.Tickets.CloseDelay)
	reason := a.Lang.T("delete_reason", "closer", transcript.DisplayTag(closer))
	if _, err := a.Session.ChannelDelete(ch.ID, discordgo.WithAuditLogReason(reason)); err != nil {
		log.Error("delete ticket channel failed", zap.Error(err))
	} else {
		res.Deleted = true
	}
	a.Registry.Remove(ch.ID)

	log.Info("ticket closed",
		zap.String("transcript", path),
		zap.Int("messages", res.Messages),
		zap.Bool("deleted", res.Deleted))
	a.publish(ctx, events.Event{
		Type:        events.TypeTicketClosed,
		GuildID:     ch.GuildID,
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		UserID:      closer.ID,
		RequesterID: res.OpenerID,
		Transcript:  filename,
		Messages:    res.Messages,
		OccurredAt:  header.ClosedAt,
	})
	return res, nil
}

func (a *App) uploadToLogChannel(log *zap.Logger, ch *discordgo.Channel, closer *discordgo.User, filename string, tr *transcript.Transcript) {
	logID := a.Cfg.Tickets.LogChannel
	if logID == "" {
		return
	}
	lc, err := a.Session.Channel(logID)
	if err != nil {
		log.Warn("log channel not resolvable", zap.String("log_channel_id", logID), zap.Error(err))
		return
	}
	if lc.GuildID != ch.GuildID {
		log.Warn("log channel belongs to another guild", zap.String("log_channel_id", logID), zap.String("log_guild_id", lc.GuildID))
		return
	}

	_, err = a.Session.ChannelMessageSendComplex(logID, &discordgo.MessageSend{
		Content: a.Lang.T("log_transcript", "channel", mentionChannel(ch.ID), "closer", closer.Mention()),
		Files:   []*discordgo.File{transcriptFile(filename, tr)},
	})
	if err != nil {
		log.Warn("upload transcript to log channel failed", zap.String("log_channel_id", logID), zap.Error(err))
	}
}

func (a *App) sendToOpener(log *zap.Logger, openerID string, ch *discordgo.Channel, closer *discordgo.User, filename string, tr *transcript.Transcript) {
	if openerID == "" {
		return
	}
	dm, err := a.Session.UserChannelCreate(openerID)
	if err != nil {
		log.Debug("open DM failed", zap.String("user_id", openerID), zap.Error(err))
		return
	}
	_, err = a.Session.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
		Content: a.Lang.T("dm_transcript", "name", ch.Name, "closer", transcript.DisplayTag(closer)),
		Files:   []*discordgo.File{transcriptFile(filename, tr)},
	})
	if err != nil {
		log.Debug("DM transcript failed", zap.String("user_id", openerID), zap.Error(err))
	}
}

func transcriptFile(name string, tr *transcript.Transcript) *discordgo.File {
	return &discordgo.File{
		Name:        name,
		ContentType: "text/plain",
		Reader:      strings.NewReader(tr.String()),
	}
}
