package storage

import (
	"context"
	"fmt"
	"time"

	"ticket-bot/config"
)

const defaultListLimit = 10

// TranscriptEntry indexes one archived transcript file.
type TranscriptEntry struct {
	GuildID     string    `json:"guild_id"     bson:"guild_id"`
	ChannelID   string    `json:"channel_id"   bson:"channel_id"`
	ChannelName string    `json:"channel_name" bson:"channel_name"`
	RequesterID string    `json:"requester_id" bson:"requester_id"`
	CloserID    string    `json:"closer_id"    bson:"closer_id"`
	File        string    `json:"file"         bson:"file"`
	Messages    int       `json:"messages"     bson:"messages"`
	ClosedAt    time.Time `json:"closed_at"    bson:"closed_at"`
}

// Index remembers which transcripts were archived. It is an audit aid: the
// transcript files stay the source of truth.
type Index interface {
	Close() error

	RecordTranscript(ctx context.Context, e TranscriptEntry) error
	RecentTranscripts(ctx context.Context, guildID string, limit int) ([]TranscriptEntry, error)
}

// Open initialises the index selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Index, error) {
	switch cfg.Driver {
	case "", "none":
		return NopIndex{}, nil

	case "sqlite":
		db := &SQLiteDB{Path: cfg.SQLite.Path}
		if err := db.Init(ctx); err != nil {
			return nil, err
		}
		return db, nil

	case "mongodb":
		db := &MongoDB{URI: cfg.MongoDB.URI, DBName: cfg.MongoDB.Database}
		if err := db.Init(ctx); err != nil {
			return nil, err
		}
		return db, nil

	case "postgres":
		db := &PostgresDB{DSN: cfg.Postgres.DSN}
		if err := db.Init(ctx); err != nil {
			return nil, err
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s (use \"sqlite\", \"mongodb\", \"postgres\" or \"none\")", cfg.Driver)
	}
}

// NopIndex discards entries.
type NopIndex struct{}

func (NopIndex) Close() error { return nil }

func (NopIndex) RecordTranscript(context.Context, TranscriptEntry) error { return nil }

func (NopIndex) RecentTranscripts(context.Context, string, int) ([]TranscriptEntry, error) {
	return nil, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > 50 {
		return 50
	}
	return limit
}
