package bot

import (
	"ticket-bot/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Intents covers guild structure, member roles and the message content the
// transcripts are built from.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent

type Bot struct {
	Session *discordgo.Session
	Config  *config.Config
	log     *zap.Logger
	ready   chan struct{}
}

func New(cfg *config.Config, log *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = Intents
	return &Bot{
		Session: s,
		Config:  cfg,
		log:     log.Named("bot"),
		ready:   make(chan struct{}),
	}, nil
}

func (b *Bot) Start() error {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("bot is online",
			zap.String("user", r.User.String()),
			zap.String("user_id", r.User.ID),
			zap.Int("guilds", len(r.Guilds)))
		select {
		case <-b.ready:
		default:
			close(b.ready)
		}
	})
	return b.Session.Open()
}

func (b *Bot) Stop() {
	if err := b.Session.Close(); err != nil {
		b.log.Warn("close session", zap.Error(err))
	}
}

// RegisterCommands replaces the application's commands once the gateway is
// ready. An empty DISCORD_GUILD_ID registers them globally.
func (b *Bot) RegisterCommands(cmds []*discordgo.ApplicationCommand) []*discordgo.ApplicationCommand {
	<-b.ready

	appID := b.Session.State.User.ID
	guildID := b.Config.Discord.GuildID

	b.log.Info("registering commands",
		zap.Int("count", len(cmds)),
		zap.String("app_id", appID),
		zap.String("guild_id", guildID))

	registered, err := b.Session.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
	if err != nil {
		b.log.Error("bulk-overwrite commands failed", zap.Error(err))
		return nil
	}

	b.log.Info("registered slash commands", zap.Int("count", len(registered)))
	return registered
}

func (b *Bot) CleanupCommands() {
	<-b.ready
	appID := b.Session.State.User.ID
	guildID := b.Config.Discord.GuildID
	if _, err := b.Session.ApplicationCommandBulkOverwrite(appID, guildID, []*discordgo.ApplicationCommand{}); err != nil {
		b.log.Error("clean up commands failed", zap.Error(err))
		return
	}
	b.log.Info("cleaned up slash commands")
}
