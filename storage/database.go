package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	Path string
	db   *sql.DB
}

func (s *SQLiteDB) Init(ctx context.Context) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("sqlite open: %w", err)
	}
	s.db = db

	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id     TEXT NOT NULL,
		channel_id   TEXT NOT NULL,
		channel_name TEXT NOT NULL,
		requester_id TEXT NOT NULL DEFAULT '',
		closer_id    TEXT NOT NULL,
		file         TEXT NOT NULL,
		messages     INTEGER NOT NULL DEFAULT 0,
		closed_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_guild_closed ON transcripts(guild_id, closed_at);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDB) RecordTranscript(ctx context.Context, e TranscriptEntry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transcripts (guild_id, channel_id, channel_name, requester_id, closer_id, file, messages, closed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.GuildID, e.ChannelID, e.ChannelName, e.RequesterID, e.CloserID, e.File, e.Messages, e.ClosedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteDB) RecentTranscripts(ctx context.Context, guildID string, limit int) ([]TranscriptEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT guild_id, channel_id, channel_name, requester_id, closer_id, file, messages, closed_at FROM transcripts WHERE guild_id = ? ORDER BY closed_at DESC, id DESC LIMIT ?",
		guildID, clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TranscriptEntry
	for rows.Next() {
		var (
			e        TranscriptEntry
			closedAt string
		)
		if err := rows.Scan(&e.GuildID, &e.ChannelID, &e.ChannelName, &e.RequesterID, &e.CloserID, &e.File, &e.Messages, &closedAt); err != nil {
			return nil, err
		}
		e.ClosedAt, _ = time.Parse(time.RFC3339Nano, closedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

type MongoDB struct {
	URI    string
	DBName string

	client      *mongo.Client
	transcripts *mongo.Collection
}

func (m *MongoDB) Init(ctx context.Context) error {
	if m.URI == "" || m.DBName == "" {
		return fmt.Errorf("MONGODB_URI and MONGODB_DATABASE must be set to use DATABASE_DRIVER=mongodb")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(m.URI))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping: %w", err)
	}

	m.client = client
	m.transcripts = client.Database(m.DBName).Collection("transcripts")
	_, err = m.transcripts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "closed_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (m *MongoDB) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) RecordTranscript(ctx context.Context, e TranscriptEntry) error {
	e.ClosedAt = e.ClosedAt.UTC()
	_, err := m.transcripts.InsertOne(ctx, e)
	return err
}

func (m *MongoDB) RecentTranscripts(ctx context.Context, guildID string, limit int) ([]TranscriptEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "closed_at", Value: -1}}).
		SetLimit(int64(clampLimit(limit)))

	cursor, err := m.transcripts.Find(ctx, bson.M{"guild_id": guildID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []TranscriptEntry
	return out, cursor.All(ctx, &out)
}

type PostgresDB struct {
	DSN  string
	pool *pgxpool.Pool
}

func (p *PostgresDB) Init(ctx context.Context) error {
	if p.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN must be set to use DATABASE_DRIVER=postgres")
	}
	pool, err := pgxpool.New(ctx, p.DSN)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("postgres ping: %w", err)
	}
	p.pool = pool

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ticket_transcripts (
			id           BIGSERIAL PRIMARY KEY,
			guild_id     TEXT NOT NULL,
			channel_id   TEXT NOT NULL,
			channel_name TEXT NOT NULL,
			requester_id TEXT NOT NULL DEFAULT '',
			closer_id    TEXT NOT NULL,
			file         TEXT NOT NULL,
			messages     INTEGER NOT NULL DEFAULT 0,
			closed_at    TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ticket_transcripts_guild_closed
			ON ticket_transcripts (guild_id, closed_at DESC);
	`)
	if err != nil {
		pool.Close()
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}

func (p *PostgresDB) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *PostgresDB) RecordTranscript(ctx context.Context, e TranscriptEntry) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO ticket_transcripts (guild_id, channel_id, channel_name, requester_id, closer_id, file, messages, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.GuildID, e.ChannelID, e.ChannelName, e.RequesterID, e.CloserID, e.File, e.Messages, e.ClosedAt.UTC())
	return err
}

func (p *PostgresDB) RecentTranscripts(ctx context.Context, guildID string, limit int) ([]TranscriptEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT guild_id, channel_id, channel_name, requester_id, closer_id, file, messages, closed_at
		FROM ticket_transcripts
		WHERE guild_id = $1
		ORDER BY closed_at DESC, id DESC
		LIMIT $2
	`, guildID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TranscriptEntry
	for rows.Next() {
		var e TranscriptEntry
		if err := rows.Scan(&e.GuildID, &e.ChannelID, &e.ChannelName, &e.RequesterID, &e.CloserID, &e.File, &e.Messages, &e.ClosedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
