// Package postgres implements the league storage ports on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mooot/league/internal/adapters/repository"
	"github.com/mooot/league/internal/domain/model"
)

const (
	migrationsTable = "schema_migrations"
	pingTimeout     = 2 * time.Second
	maxConns        = 10
)

// ErrMigrationFailed wraps any failure applying the schema.
var ErrMigrationFailed = errors.New("postgres migration failed")

// Store implements repository.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// New connects to dsn, checks the connection and applies pending migrations.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Migrate applies every migration not yet recorded in schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrMigrationFailed, migrationsTable, err)
	}

	applied := make(map[int]bool)
	rows, err := s.pool.Query(ctx, `SELECT version FROM `+migrationsTable)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	for _, m := range Migrations() {
		if applied[m.Version] {
			continue
		}
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO `+migrationsTable+` (version, name) VALUES ($1, $2)`, m.Version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, m.Version, err)
		}
	}
	return nil
}

// withTx commits when fn succeeds and rolls back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) InsertRecord(ctx context.Context, rec model.GameRecord) (string, error) {
	if err := repository.ValidateRecord(rec); err != nil {
		return "", err
	}
	id := repository.NewID()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO games_chats (id, chat_id, player_kind, player_id, player_name, points, elapsed_seconds, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, rec.ChatID, int16(rec.Player.Kind), rec.Player.ID, rec.PlayerName,
		rec.Points, rec.ElapsedSeconds, rec.RecordedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

const recordColumns = `chat_id, player_kind, player_id, player_name, points, elapsed_seconds, recorded_at`

// recordOrder matches repository.SortRecords.
const recordOrder = ` ORDER BY points DESC, elapsed_seconds ASC, recorded_at ASC, id ASC`

func (s *Store) Records(ctx context.Context, chatID int64, from, to time.Time) ([]model.GameRecord, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM games_chats
		WHERE chat_id = $1
		  AND ($2::timestamptz IS NULL OR recorded_at >= $2)
		  AND ($3::timestamptz IS NULL OR recorded_at < $3)`+recordOrder,
		chatID, nullTime(from), nullTime(to))
}

func (s *Store) RecordsAllChats(ctx context.Context, from, to time.Time, kind model.PlayerKind) ([]model.GameRecord, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM games_chats
		WHERE player_kind = $1
		  AND ($2::timestamptz IS NULL OR recorded_at >= $2)
		  AND ($3::timestamptz IS NULL OR recorded_at < $3)`+recordOrder,
		int16(kind), nullTime(from), nullTime(to))
}

func (s *Store) queryRecords(ctx context.Context, sql string, args ...any) ([]model.GameRecord, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := make([]model.GameRecord, 0)
	for rows.Next() {
		var (
			r    model.GameRecord
			kind int16
		)
		if err := rows.Scan(&r.ChatID, &kind, &r.Player.ID, &r.PlayerName, &r.Points, &r.ElapsedSeconds, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Player.Kind = model.PlayerKind(kind)
		r.RecordedAt = r.RecordedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Chats(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chat_id FROM games_chats
		UNION
		SELECT chat_id FROM characters
		ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	chats, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan chats: %w", err)
	}
	return chats, nil
}

// SaveGrants inserts the whole batch in one transaction.
func (s *Store) SaveGrants(ctx context.Context, runID string, grants []model.AwardGrant, at time.Time) error {
	if err := repository.ValidateGrants(runID, grants); err != nil {
		return err
	}
	if len(grants) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, g := range grants {
			batch.Queue(`
				INSERT INTO awards (run_id, chat_id, player_kind, player_id, trophy_id, granted_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				runID, g.ChatID, int16(g.Player.Kind), g.Player.ID, g.TrophyID, at.UTC(),
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range grants {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert grant: %w", err)
			}
		}
		return br.Close()
	})
}

func (s *Store) Awards(ctx context.Context, chatID int64) ([]model.AwardRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.chat_id, a.player_kind, a.player_id, a.trophy_id, a.run_id, a.granted_at,
		       COALESCE(
		           (SELECT g.player_name FROM games_chats g
		             WHERE g.chat_id = a.chat_id AND g.player_kind = a.player_kind AND g.player_id = a.player_id
		             ORDER BY g.recorded_at DESC LIMIT 1),
		           (SELECT c.name FROM characters c WHERE a.player_kind = $2 AND c.id = a.player_id),
		           '')
		  FROM awards a
		 WHERE a.chat_id = $1
		 ORDER BY a.granted_at, a.id`, chatID, int16(model.KindCharacter))
	if err != nil {
		return nil, fmt.Errorf("query awards: %w", err)
	}
	defer rows.Close()

	out := make([]model.AwardRecord, 0)
	for rows.Next() {
		var (
			a    model.AwardRecord
			kind int16
		)
		if err := rows.Scan(&a.ChatID, &kind, &a.Player.ID, &a.TrophyID, &a.RunID, &a.GrantedAt, &a.PlayerName); err != nil {
			return nil, fmt.Errorf("scan award: %w", err)
		}
		a.Player.Kind = model.PlayerKind(kind)
		a.GrantedAt = a.GrantedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) Characters(ctx context.Context, chatID int64) ([]model.Character, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, chat_id, name, ability FROM characters WHERE chat_id = $1 ORDER BY id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()

	out := make([]model.Character, 0)
	for rows.Next() {
		var c model.Character
		if err := rows.Scan(&c.ID, &c.ChatID, &c.Name, &c.Ability); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) PutCharacter(ctx context.Context, c model.Character) (model.Character, error) {
	if err := repository.ValidateCharacter(c); err != nil {
		return model.Character{}, err
	}
	if c.ID == 0 {
		err := s.pool.QueryRow(ctx,
			`INSERT INTO characters (chat_id, name, ability) VALUES ($1, $2, $3) RETURNING id`,
			c.ChatID, c.Name, c.Ability,
		).Scan(&c.ID)
		if err != nil {
			return model.Character{}, fmt.Errorf("insert character: %w", err)
		}
		return c, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE characters SET name = $3, ability = $4 WHERE id = $1 AND chat_id = $2`,
		c.ID, c.ChatID, c.Name, c.Ability,
	)
	if err != nil {
		return model.Character{}, fmt.Errorf("update character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Character{}, fmt.Errorf("character %d in chat %d: %w", c.ID, c.ChatID, repository.ErrNotFound)
	}
	return c, nil
}

// nullTime maps a zero bound to SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
