package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ticket-bot/bot"
	"ticket-bot/config"
	"ticket-bot/events"
	"ticket-bot/handlers"
	"ticket-bot/lang"
	"ticket-bot/logging"
	"ticket-bot/storage"
	"ticket-bot/tickets"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	envFile := pflag.String("env-file", ".env", "Path to a dotenv file (ignored when missing)")
	cleanup := pflag.Bool("cleanup", false, "Remove slash commands on shutdown")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			logger.Fatal("please set DISCORD_TOKEN in the environment or .env")
		}
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	catalog, err := lang.Load(cfg.LangFile)
	if err != nil {
		logger.Fatal("load messages", zap.String("file", cfg.LangFile), zap.Error(err))
	}

	ctx := context.Background()

	index, err := storage.Open(ctx, &cfg.Database)
	if err != nil {
		logger.Warn("transcript index unavailable, continuing without it",
			zap.String("driver", cfg.Database.Driver), zap.Error(err))
		index = storage.NopIndex{}
	}
	defer index.Close()

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.AMQPURL != "" {
		p, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Warn("event publisher unavailable", zap.Error(err))
		} else {
			publisher = p
			defer p.Close()
		}
	}

	locker := newLocker(ctx, cfg.Lock, logger)
	if c, ok := locker.(io.Closer); ok {
		defer c.Close()
	}

	b, err := bot.New(cfg, logger)
	if err != nil {
		logger.Fatal("create bot", zap.Error(err))
	}

	app := handlers.New(b.Session, cfg, logger.Named("tickets"), catalog, handlers.Deps{
		Index:  index,
		Events: publisher,
		Locker: locker,
	})
	app.Register(b.Session)

	if err := b.Start(); err != nil {
		logger.Fatal("start bot", zap.Error(err))
	}
	defer b.Stop()

	b.RegisterCommands(handlers.Commands())

	logger.Info("bot is running, press Ctrl+C to exit",
		zap.String("language", catalog.Language()),
		zap.String("transcript_dir", cfg.Tickets.TranscriptDir),
		zap.String("index_driver", cfg.Database.Driver))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if *cleanup {
		b.CleanupCommands()
	}
}

// newLocker returns the Redis close lock when one is configured and
// reachable, and the in-process lock otherwise.
func newLocker(ctx context.Context, cfg config.LockConfig, logger *zap.Logger) tickets.Locker {
	if cfg.RedisURL == "" {
		return tickets.NewMemoryLocker()
	}
	rl, err := tickets.DialRedisLocker(ctx, cfg.RedisURL, cfg.TTL)
	if err != nil {
		logger.Warn("close lock redis unavailable, using in-process locks", zap.Error(err))
		return tickets.NewMemoryLocker()
	}
	return rl
}
