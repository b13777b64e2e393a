package handlers

import (
	"context"
	"time"

	"ticket-bot/config"
	"ticket-bot/events"
	"ticket-bot/lang"
	"ticket-bot/storage"
	"ticket-bot/tickets"
	"ticket-bot/transcript"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Session is the part of *discordgo.Session the ticket workflow calls.
type Session interface {
	transcript.MessageLister

	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ Session = (*discordgo.Session)(nil)

// App carries everything the interaction handlers share.
type App struct {
	Session Session
	Cfg     *config.Config
	Log     *zap.Logger
	Lang    *lang.Catalog

	Registry    *tickets.Registry
	Confirms    *tickets.Confirmations
	Locker      tickets.Locker
	Containers  *tickets.ContainerGuard
	Transcripts *transcript.Store
	Index       storage.Index
	Events      events.Publisher

	sleep func(time.Duration)
	now   func() time.Time
}

// Deps are the optional backends of an App. Nil fields fall back to
// in-process implementations.
type Deps struct {
	Index  storage.Index
	Events events.Publisher
	Locker tickets.Locker
}

func New(s Session, cfg *config.Config, log *zap.Logger, catalog *lang.Catalog, deps Deps) *App {
	if log == nil {
		log = zap.NewNop()
	}
	if catalog == nil {
		catalog = lang.Default()
	}
	if deps.Index == nil {
		deps.Index = storage.NopIndex{}
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.Locker == nil {
		deps.Locker = tickets.NewMemoryLocker()
	}
	return &App{
		Session:     s,
		Cfg:         cfg,
		Log:         log,
		Lang:        catalog,
		Registry:    tickets.NewRegistry(),
		Confirms:    tickets.NewConfirmations(cfg.Tickets.ConfirmCapacity, cfg.Tickets.ConfirmTTL),
		Locker:      deps.Locker,
		Containers:  &tickets.ContainerGuard{},
		Transcripts: transcript.NewStore(cfg.Tickets.TranscriptDir),
		Index:       deps.Index,
		Events:      deps.Events,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// Register routes guild interactions of s to the app.
func (a *App) Register(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		a.Handle(i)
	})
}

func (a *App) Handle(i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return
	}
	ctx := context.Background()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		a.handleSlashCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		a.handleComponent(ctx, i)
	}
}

func (a *App) publish(ctx context.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = a.now().UTC()
	}
	if err := a.Events.Publish(ctx, e); err != nil {
		a.Log.Warn("publish event failed",
			zap.String("type", e.Type),
			zap.String("channel_id", e.ChannelID),
			zap.Error(err))
	}
}
